package mockkafka

// Option is a functional option for configuring a mock Client.
type Option func(*Client)

// WithManualCommits keeps CommitAsync callbacks pending until the test calls
// CompleteNextCommit. Default is to complete every commit inline.
func WithManualCommits() Option {
	return func(c *Client) {
		c.manualCommits = true
	}
}

// WithSubscribeError configures an error to be returned by Subscribe and
// SubscribePattern.
func WithSubscribeError(err error) Option {
	return func(c *Client) {
		c.subscribeErr = err
	}
}

// WithCommitError configures an error to be delivered to every commit
// callback.
func WithCommitError(err error) Option {
	return func(c *Client) {
		c.commitErr = err
	}
}
