package nagcore

// Status runs the Diff Engine and reports the six-bucket classification.
// Callers use result.IsClean() as the "clean repository" check spec §4.8
// describes (textually, "returns the empty string... len()==0").
func Status(h *RepoHandle, store *ObjectStore, oracle IgnoreOracle) (*StatusResult, error) {
	return ComputeStatus(h, store, oracle)
}
