package interview

// topicScoreMapping is the fixed sub-topic -> evaluation axis mapping
// from spec §4.6. Sub-topics not present here are ignored for scoring
// purposes (still recorded in AskedSubTopics and AnswerMetadata).
var topicScoreMapping = map[string]Axis{
	"성적":     Axis전공적합성,
	"동아리":    Axis전공적합성,
	"리더십":    Axis인성,
	"인성/태도":  Axis인성,
	"봉사":     Axis인성,
	"진로/자율":  Axis발전가능성,
	"독서":     Axis발전가능성,
	"출결":     Axis의사소통,
}

// ApplyScore adds evaluation.Score to the axis mapped from subTopic, if
// any. Scores are cumulative and never decrease, per spec §4.6.
func (s *State) ApplyScore(subTopic string, evaluation Evaluation) {
	axis, ok := topicScoreMapping[subTopic]
	if !ok {
		return
	}
	s.Scores[axis] += evaluation.Score
}

// subTopicCandidates is the fixed, ordered pool retrieve_new_topic draws
// from. Order is fixed (rather than taken from map iteration) so topic
// selection is reproducible across a re-run of the same thread.
var subTopicCandidates = []string{
	"성적", "동아리", "리더십", "인성/태도", "봉사", "진로/자율", "독서", "출결",
}

// NextUnusedSubTopic returns the first candidate sub-topic that is neither
// the current sub-topic nor already in AskedSubTopics, or "" if none is
// left (the caller should route to wrap_up in that case).
func (s *State) NextUnusedSubTopic() string {
	for _, topic := range subTopicCandidates {
		if topic == s.CurrentSubTopic {
			continue
		}
		if !s.HasAskedSubTopic(topic) {
			return topic
		}
	}
	return ""
}
