package transcript

// Append returns a new log holding log followed by msgs. The input slice is
// never modified, so earlier snapshots stay valid after later appends.
func Append(log []Message, msgs ...Message) []Message {
	out := make([]Message, 0, len(log)+len(msgs))
	out = append(out, log...)
	return append(out, msgs...)
}

// Since returns the messages after the first n entries of log.
func Since(log []Message, n int) []Message {
	if n < 0 {
		n = 0
	}
	if n >= len(log) {
		return nil
	}
	return log[n:]
}
