package protocol

// Message is the closed set of Assuan line kinds. Concrete types are the
// only implementations; sessions switch over them exhaustively.
type Message interface {
	message()
}

// Command is a client request line: "NAME [parameters]".
type Command struct {
	Name       string
	Parameters string
}

// OK terminates a response stream successfully, with optional text.
type OK struct {
	Message string
}

// Err terminates a response stream with a failure.
type Err struct {
	Code        int
	Description string
}

// Status is an informational "S keyword text" line.
type Status struct {
	Keyword string
	Text    string
}

// Comment is a "# text" line, never semantically significant.
type Comment struct {
	Text string
}

// Data is one percent-decoded payload fragment. A logical datum is the
// ordered concatenation of consecutive Data chunks.
type Data struct {
	Chunk []byte
}

// Inquire is a mid-command server request for data from the client.
type Inquire struct {
	Keyword    string
	Parameters string
}

// Cancel aborts a pending inquire.
type Cancel struct{}

// End terminates an inquire data reply.
type End struct{}

func (Command) message() {}
func (OK) message()      {}
func (Err) message()     {}
func (Status) message()  {}
func (Comment) message() {}
func (Data) message()    {}
func (Inquire) message() {}
func (Cancel) message()  {}
func (End) message()     {}
