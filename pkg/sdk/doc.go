// Package sdk provides an HTTP client for the canopy REST API.
//
// Unlike the root canopy package, which embeds the store driver and
// query engine in-process, this client talks to a running canopy server
// over its REST surface.
//
//	client, _ := sdk.New("http://localhost:8080",
//	    sdk.WithAPIKey("secret"),
//	)
//	posts := client.Resource("posts")
//	page, _ := posts.List(ctx, sdk.Query{
//	    Filters: []sdk.Filter{{Field: "views", Op: "gte", Value: 10}},
//	    Sort:    "title",
//	})
//	stop, _ := posts.Subscribe(ctx, func() { /* re-query */ })
package sdk
