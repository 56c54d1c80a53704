// Package bridge is the presentation side of a surface channel.
//
// Presentation code never touches the OS. Everything it may ask of the host
// is a typed method here: window controls, theme reads and writes, log
// forwarding and two event subscriptions. Requests carry a context and time
// out after common.RequestTimeout unless the caller sets its own deadline.
package bridge
