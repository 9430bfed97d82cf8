package logger

// RingBuffer keeps the most recent lines written to a log file.
type RingBuffer struct {
	lines    []string
	head     int // next write position
	size     int // lines currently held
	sinceCut int // lines added since the file was last trimmed
}

// NewRingBuffer creates a ring buffer holding up to capacity lines.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		lines: make([]string, max(capacity, 1)),
	}
}

// Capacity returns the maximum number of lines held.
func (rb *RingBuffer) Capacity() int {
	return len(rb.lines)
}

// Len returns the number of lines currently held.
func (rb *RingBuffer) Len() int {
	return rb.size
}

// Add appends a line, overwriting the oldest once full.
func (rb *RingBuffer) Add(line string) {
	rb.lines[rb.head] = line
	rb.head = (rb.head + 1) % len(rb.lines)

	if rb.size < len(rb.lines) {
		rb.size++
	}

	rb.sinceCut++
}

// Lines returns the held lines oldest first.
func (rb *RingBuffer) Lines() []string {
	if rb.size == 0 {
		return nil
	}

	result := make([]string, rb.size)
	start := (rb.head - rb.size + len(rb.lines)) % len(rb.lines)

	for i := range rb.size {
		result[i] = rb.lines[(start+i)%len(rb.lines)]
	}

	return result
}
