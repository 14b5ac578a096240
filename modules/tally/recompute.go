package tally

import "context"

// Recompute discards every aggregate row for an election and rebuilds them
// by replaying success records in ascending sequential position. The
// result must equal what the incremental path produced; operators run this
// for audits and to repair any drift. Idempotent and safe to repeat.
func (t *Aggregator) Recompute(ctx context.Context, electionId string) error {
	if err := t.positions.DeleteForElection(electionId); err != nil {
		return err
	}
	if err := t.tallies.DeleteForElection(electionId); err != nil {
		return err
	}
	if err := t.elections.ResetVoteCounts(electionId); err != nil {
		return err
	}

	records, err := t.votes.ListSuccess(electionId)
	if err != nil {
		return err
	}

	t.log.Info("recomputing tallies", "election_id", electionId, "records", len(records))
	for _, record := range records {
		if err := t.ApplyVote(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
