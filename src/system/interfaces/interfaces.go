package interfaces

// LoggerInterface is the minimal sink the archivist writes to.
// A *log.Logger satisfies it out of the box.
type LoggerInterface interface {
	Println(v ...interface{})
}
