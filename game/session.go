package game

// Session is the process-wide state that outlives a single generation.
// Create one at startup and hand it to every Population.
type Session struct {
	generation int
	bestScore  int
}

// NewSession starts a session at generation 0 with no best score.
func NewSession() *Session {
	return &Session{}
}

// Generation returns the number of the current (or last started) generation.
func (s *Session) Generation() int {
	return s.generation
}

// NextGeneration advances the generation counter and returns the new value.
func (s *Session) NextGeneration() int {
	s.generation++
	return s.generation
}

// BestScore returns the highest score any generation has reached.
func (s *Session) BestScore() int {
	return s.bestScore
}

// RecordScore raises the best score if score beats it and reports whether it did.
func (s *Session) RecordScore(score int) bool {
	if score <= s.bestScore {
		return false
	}
	s.bestScore = score
	return true
}
