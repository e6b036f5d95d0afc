package interview

// RoutingConfig holds the thresholds that parameterize the fixed
// analyzer -> next-node decision table, sourced from InterviewConfig so
// operators can tune them without a code change.
type RoutingConfig struct {
	WrapUpThresholdS int
	MaxFollowUps     int
	MaxTopics        int
}

// Route evaluates the four routing rules from spec §4.6 in order; the
// first match wins.
func Route(s *State, evaluation Evaluation, cfg RoutingConfig) NextAction {
	if s.RemainingTimeS < cfg.WrapUpThresholdS {
		return ActionWrapUp
	}
	if evaluation.Score < 60 && s.FollowUpCount < cfg.MaxFollowUps {
		return ActionFollowUp
	}
	if len(s.AskedSubTopics) >= cfg.MaxTopics {
		return ActionWrapUp
	}
	return ActionNewTopic
}
