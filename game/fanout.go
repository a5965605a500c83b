package game

import (
	"strings"

	bitrealm "github.com/virgilvox/bitrealm-sub000"
	"github.com/virgilvox/bitrealm-sub000/structs"
)

type errs []error

func (e errs) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Fanout broadcasts envelopes to a set of clients. Clients whose transport
// fails are dropped from the set.
type Fanout map[*structs.Client]bool

func (f *Fanout) Push(c *structs.Client) *Fanout {
	if f == nil {
		return &Fanout{c: true}
	}
	(*f)[c] = true
	return f
}

func (f *Fanout) Drop(c *structs.Client) *Fanout {
	if f == nil {
		return nil
	}
	delete(*f, c)
	return f
}

func (f *Fanout) Len() int {
	if f == nil {
		return 0
	}
	return len(*f)
}

func (f *Fanout) Send(channel string, message string, data any) error {
	if f == nil {
		return nil
	}
	failed := errs{}
	for c := range *f {
		if err := c.Send(channel, message, data); err != nil {
			delete(*f, c)
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return bitrealm.WithStack(failed)
	}
	return nil
}
