// Package watch reports changes to scan sources so an index can be rebuilt.
//
// Directory locators are watched recursively; archive and module locators
// are watched through their parent directory. Raw fsnotify events are
// coalesced per path by a Debouncer and delivered as batches:
//
//	w, err := watch.New(watch.Options{})
//	go w.Start(ctx, locators)
//	for batch := range w.Events() {
//	    // rescan
//	}
package watch
