// Package typeindex builds and queries a structural metadata index over
// compiled class directories, archives and module images.
//
// A scan runs the configured extractors over every unit of every source and
// records facts in named categories. With supertype expansion enabled, the
// hierarchy is completed afterwards so that subtype queries stay transitive
// even when the input filter hid intermediate types.
//
// # Usage
//
//	opts := typeindex.DefaultOptions()
//	opts.Locators = []string{"build/classes", "lib/app.jar"}
//
//	ix, err := typeindex.Scan(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	impls, _ := ix.SubTypesOf("com.acme.Plugin")
//	_, _ = ix.Save(ctx, ".typeindex/index.json", "")
//
// Saved indexes are reopened with [Load], or merged with [Collect].
package typeindex
