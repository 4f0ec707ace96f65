package pak

import "log"

// Observer receives progress events emitted synchronously during Load,
// Save, and Close, in the order listed in spec §6. The zero value of any
// struct implementing Observer that leaves methods unimplemented is not
// valid; use NoopObserver to ignore events selectively by embedding it.
type Observer interface {
	LoadStart(target string)
	LoadHeader()
	LoadMetatable()
	LoadFiles(total int)
	LoadFileProgress(target string, index int)
	LoadDone()

	SaveStart(target string)
	SaveHeader()
	SaveFiles(total int)
	SaveFileProgress(target string, kind SourceKind, index int)
	SaveMetatable()
	SaveDone()

	Close()
}

// NoopObserver implements Observer with no-op methods. Embed it to
// implement only the events you care about.
type NoopObserver struct{}

func (NoopObserver) LoadStart(target string)                               {}
func (NoopObserver) LoadHeader()                                           {}
func (NoopObserver) LoadMetatable()                                        {}
func (NoopObserver) LoadFiles(total int)                                   {}
func (NoopObserver) LoadFileProgress(target string, index int)            {}
func (NoopObserver) LoadDone()                                             {}
func (NoopObserver) SaveStart(target string)                               {}
func (NoopObserver) SaveHeader()                                           {}
func (NoopObserver) SaveFiles(total int)                                   {}
func (NoopObserver) SaveFileProgress(target string, kind SourceKind, index int) {}
func (NoopObserver) SaveMetatable()                                        {}
func (NoopObserver) SaveDone()                                             {}
func (NoopObserver) Close()                                                {}

// LogObserver logs each event through a *log.Logger, the way the teacher
// reports boot/build progress with log.Printf (cmd/minitrd, cmd/autobuilder).
type LogObserver struct {
	Logger *log.Logger
}

func (o LogObserver) logf(format string, args ...interface{}) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (o LogObserver) LoadStart(target string) { o.logf("pak: loading %s", target) }
func (o LogObserver) LoadHeader()              { o.logf("pak: header verified") }
func (o LogObserver) LoadMetatable()           { o.logf("pak: metatable parsed") }
func (o LogObserver) LoadFiles(total int)      { o.logf("pak: %d files in metatable", total) }
func (o LogObserver) LoadFileProgress(target string, index int) {
	o.logf("pak: indexed %s (%d)", target, index)
}
func (o LogObserver) LoadDone() { o.logf("pak: load complete") }

func (o LogObserver) SaveStart(target string) { o.logf("pak: saving to %s", target) }
func (o LogObserver) SaveHeader()              { o.logf("pak: header written") }
func (o LogObserver) SaveFiles(total int)      { o.logf("pak: writing %d files", total) }
func (o LogObserver) SaveFileProgress(target string, kind SourceKind, index int) {
	o.logf("pak: wrote %s (%s, %d)", target, kind, index)
}
func (o LogObserver) SaveMetatable() { o.logf("pak: metatable written") }
func (o LogObserver) SaveDone()      { o.logf("pak: save complete") }

func (o LogObserver) Close() { o.logf("pak: closed") }
