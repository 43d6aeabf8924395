package domain

// MessageBus carries captured posts from the watcher to the pipeline.
type MessageBus interface {
	Publish(msg IncomingMessage)
	Subscribe() <-chan IncomingMessage
	Close()
}
