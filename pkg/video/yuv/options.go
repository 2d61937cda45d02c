package yuv

type Options struct {
	Threaded bool
	Threads  int
}

func (o *Options) override(options ...Option) {
	for _, opt := range options {
		opt(o)
	}
}

type Option func(*Options)

func Threaded(t bool) Option {
	return func(opts *Options) {
		opts.Threaded = t
	}
}

func Threads(t int) Option {
	return func(opts *Options) {
		opts.Threads = t
	}
}

// WithOptions used for config files.
func WithOptions(arg Options) Option {
	return func(args *Options) {
		args.Threaded = arg.Threaded
		if arg.Threads > 0 {
			args.Threads = arg.Threads
		}
	}
}
