package weather

// Observer receives fetch lifecycle notifications. For every fetch it sees
// exactly one OnFetchStarted followed by exactly one of OnFetchSucceeded or
// OnFetchFailed. OnRequestURLResolved fires at most once per fetch, between the two.
type Observer interface {
	OnFetchStarted()
	OnRequestURLResolved(url string)
	OnFetchSucceeded(record Record)
	OnFetchFailed(err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Started     func()
	URLResolved func(url string)
	Succeeded   func(record Record)
	Failed      func(err error)
}

func (o ObserverFuncs) OnFetchStarted() {
	if o.Started != nil {
		o.Started()
	}
}

func (o ObserverFuncs) OnRequestURLResolved(url string) {
	if o.URLResolved != nil {
		o.URLResolved(url)
	}
}

func (o ObserverFuncs) OnFetchSucceeded(record Record) {
	if o.Succeeded != nil {
		o.Succeeded(record)
	}
}

func (o ObserverFuncs) OnFetchFailed(err error) {
	if o.Failed != nil {
		o.Failed(err)
	}
}

// OnMain returns an Observer that posts every notification to d instead of
// running it on the calling goroutine.
func OnMain(d Dispatcher, o Observer) Observer {
	return &dispatchedObserver{dispatcher: d, next: o}
}

type dispatchedObserver struct {
	dispatcher Dispatcher
	next       Observer
}

func (d *dispatchedObserver) OnFetchStarted() {
	d.dispatcher.Dispatch(d.next.OnFetchStarted)
}

func (d *dispatchedObserver) OnRequestURLResolved(url string) {
	d.dispatcher.Dispatch(func() { d.next.OnRequestURLResolved(url) })
}

func (d *dispatchedObserver) OnFetchSucceeded(record Record) {
	d.dispatcher.Dispatch(func() { d.next.OnFetchSucceeded(record) })
}

func (d *dispatchedObserver) OnFetchFailed(err error) {
	d.dispatcher.Dispatch(func() { d.next.OnFetchFailed(err) })
}
