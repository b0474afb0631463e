package prompt

import (
	"context"
	"sync"
)

// Kind says which Host method issued a request.
type Kind int

const (
	KindConfirm Kind = iota
	KindInput
)

// Response resumes a suspended request.
type Response struct {
	Answer Answer
	Text   string
	OK     bool
}

// Request is a suspended prompt. The issuing handler blocks until Respond is
// called or its context ends.
type Request struct {
	Kind        Kind
	Message     string
	Placeholder string

	once  sync.Once
	reply chan Response
}

func newRequest(kind Kind, message, placeholder string) *Request {
	return &Request{
		Kind:        kind,
		Message:     message,
		Placeholder: placeholder,
		reply:       make(chan Response, 1),
	}
}

// Respond delivers resp. Only the first call has any effect.
func (r *Request) Respond(resp Response) {
	r.once.Do(func() {
		r.reply <- resp
	})
}

func (r *Request) Yes()     { r.Respond(Response{Answer: Yes}) }
func (r *Request) No()      { r.Respond(Response{Answer: No}) }
func (r *Request) Dismiss() { r.Respond(Response{Answer: Dismissed}) }
func (r *Request) Cancel()  { r.Respond(Response{}) }

func (r *Request) Text(text string) {
	r.Respond(Response{Text: text, OK: true})
}

// Notice is a recorded notification.
type Notice struct {
	Level   Level
	Message string
}

// Channel is a Host that publishes every prompt as a Request on a channel and
// waits for someone to answer it.
type Channel struct {
	requests chan *Request

	mu      sync.Mutex
	notices []Notice
}

func NewChannel(buffer int) *Channel {
	return &Channel{requests: make(chan *Request, buffer)}
}

// Requests yields prompts in the order they were issued.
func (c *Channel) Requests() <-chan *Request {
	return c.requests
}

func (c *Channel) Confirm(ctx context.Context, message string) (Answer, error) {
	resp, ok := c.issue(ctx, newRequest(KindConfirm, message, ""))
	if !ok {
		return Dismissed, nil
	}
	return resp.Answer, nil
}

func (c *Channel) InputText(ctx context.Context, prompt, placeholder string) (string, bool, error) {
	resp, ok := c.issue(ctx, newRequest(KindInput, prompt, placeholder))
	if !ok || !resp.OK {
		return "", false, nil
	}
	return resp.Text, true, nil
}

func (c *Channel) Notify(_ context.Context, level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, Notice{Level: level, Message: message})
}

// Notices returns the notifications recorded so far.
func (c *Channel) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.notices...)
}

func (c *Channel) issue(ctx context.Context, req *Request) (Response, bool) {
	select {
	case c.requests <- req:
	case <-ctx.Done():
		return Response{}, false
	}
	select {
	case resp := <-req.reply:
		return resp, true
	case <-ctx.Done():
		return Response{}, false
	}
}
