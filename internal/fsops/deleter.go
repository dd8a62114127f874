package fsops

//go:generate mockgen -destination=../mocks/deleter.go -package=mocks mdclean/internal/fsops Deleter

// Deleter abstracts filesystem delete operations
// Enables mocking in tests to prove dry-run never deletes
type Deleter interface {
	Remove(path string) error
}
