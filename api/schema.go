// Package api holds the wire types exchanged with the objtree daemon.
package api

// Method names served on the control socket.
const (
	MethodCall    = "call"
	MethodWatch   = "watch"
	MethodChanged = "changed"
)

// CallParams runs one command. Args[0] is the command name.
type CallParams struct {
	Args []string `json:"args"`
}

// CallResult is the outcome of a command.
type CallResult struct {
	// Status is the numeric exit status, 0 on success.
	Status int `json:"status"`
	// Output is everything the command printed.
	Output string `json:"output"`
}

// WatchParams subscribes the connection to changes on the node at Path.
type WatchParams struct {
	Path string `json:"path"`
	// Subtree extends the watch to every node below Path.
	Subtree bool `json:"subtree,omitempty"`
}

// WatchResult acknowledges a subscription.
type WatchResult struct {
	// ID identifies the subscription in Changed notifications.
	ID int `json:"id"`
}

// Changed is the payload of a changed notification.
type Changed struct {
	Watch int    `json:"watch"`
	Path  string `json:"path"`
	Old   string `json:"old"`
	New   string `json:"new"`
}
