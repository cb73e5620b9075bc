package core

// DefaultChunkSize is the chunk size used by stream sources and the
// lexer's read buffer when none is configured.
const DefaultChunkSize = 8192

// Config controls how tolerant parsing is of damaged input.
type Config struct {
	// OnCorrectableError is consulted for every recoverable deviation
	// found in the input. Returning true turns the deviation into a
	// fatal error; returning false applies the documented correction
	// and continues. A nil hook corrects silently.
	OnCorrectableError func(err error) bool

	// TryXRefReconstruction enables the brute-force scan that rebuilds
	// the cross-reference information when the recorded tables are
	// unusable.
	TryXRefReconstruction bool

	// ChunkSize overrides the read and stream chunk size. Zero means
	// DefaultChunkSize.
	ChunkSize int
}

// DefaultConfig returns the lenient configuration: corrections are
// applied silently and reconstruction is attempted.
func DefaultConfig() Config {
	return Config{TryXRefReconstruction: true}
}

// StrictConfig returns a configuration under which every correctable
// deviation is a fatal error and no reconstruction is attempted.
func StrictConfig() Config {
	return Config{
		OnCorrectableError:    func(error) bool { return true },
		TryXRefReconstruction: false,
	}
}

// correctable routes a recoverable deviation through the policy hook.
// A nil return means the caller should apply its correction and
// continue; otherwise the returned error must be propagated.
func (c Config) correctable(err *MalformedError) error {
	if c.OnCorrectableError != nil && c.OnCorrectableError(err) {
		return err
	}
	return nil
}

func (c Config) chunkSize() int {
	if c.ChunkSize > 0 {
		return c.ChunkSize
	}
	return DefaultChunkSize
}
