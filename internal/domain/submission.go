package domain

// SubmissionKind tags what a submission carries.
type SubmissionKind int

const (
	// SubmissionAnswer submits an answer id (possibly none) for the
	// current question.
	SubmissionAnswer SubmissionKind = iota
	// SubmissionRevealHalf consumes the 50/50 hint; no step is recorded.
	SubmissionRevealHalf
	// SubmissionSkip submits with the skip hint: the step is recorded with
	// whatever answer was chosen, and the game advances regardless.
	SubmissionSkip
)

// Submission is a tagged variant of one player action. Construct it with
// AnswerSubmission, RevealHalfSubmission, or SkipSubmission so that an
// answer and a hint request cannot be combined.
type Submission struct {
	kind     SubmissionKind
	answerID string
}

// AnswerSubmission submits answerID for the current question. An empty or
// "0" id means no answer was chosen.
func AnswerSubmission(answerID string) Submission {
	return Submission{kind: SubmissionAnswer, answerID: normalizeAnswerID(answerID)}
}

// RevealHalfSubmission requests the 50/50 hint.
func RevealHalfSubmission() Submission {
	return Submission{kind: SubmissionRevealHalf}
}

// SkipSubmission submits with the skip hint. The answer id, if any, is
// recorded on the step but never decides progression.
func SkipSubmission(answerID string) Submission {
	return Submission{kind: SubmissionSkip, answerID: normalizeAnswerID(answerID)}
}

// Kind reports the variant.
func (s Submission) Kind() SubmissionKind { return s.kind }

// AnswerID returns the chosen answer id, empty when none was chosen.
func (s Submission) AnswerID() string { return s.answerID }

// normalizeAnswerID treats "0" the same as absent; web forms post zero for
// an empty selection.
func normalizeAnswerID(id string) string {
	if id == "0" {
		return ""
	}
	return id
}
