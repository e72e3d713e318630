package commands

// LatestReplayCommand exports latestReplayCommand for testing.
var LatestReplayCommand = latestReplayCommand //nolint:gochecknoglobals // test export

// RecordChangelog exports recordChangelog for testing.
var RecordChangelog = recordChangelog //nolint:gochecknoglobals // test export

// SetBranchIDGenerator replaces the uuid used to name new branches.
func SetBranchIDGenerator(reconciler *PullRequestReconciler, generate func() string) {
	reconciler.newBranchID = generate
}

// ProcessFleet exports processFleet for testing.
var ProcessFleet = processFleet //nolint:gochecknoglobals // test export
