package ports

// Launcher hands a URL to the operating system. Fire and forget: callers
// do not wait for the target application to succeed.
type Launcher interface {
	Open(url string) error
}
