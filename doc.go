// Package canopy provides a uniform CRUD and live-subscription client
// over a hierarchical JSON tree store backed by Redis or an in-process
// memory driver.
//
// The store has no query language beyond subtree retrieval: list
// queries (filter, sort, pagination) are evaluated client-side by a
// pure in-memory engine over the full collection.
//
// # Low-level API — records as maps
//
//	client, _ := canopy.New(ctx, canopy.WithMemory())
//	posts := client.Resource("posts")
//	rec, _ := posts.Create(ctx, canopy.Record{"title": "hello", "views": 1})
//	page, total, _ := posts.List().
//	    Where("views", canopy.Gte, 10).
//	    Sort("title").
//	    Page(1).PerPage(20).
//	    Do(ctx)
//
// # High-level API — typed resources with Go generics
//
//	type Post struct {
//	    ID    string `json:"id"`
//	    Title string `json:"title"`
//	    Views int    `json:"views"`
//	}
//
//	posts := canopy.NewTyped[Post](client, "posts")
//	created, _ := posts.Create(ctx, Post{Title: "hello"})
//	items, total, _ := posts.List(ctx, canopy.ListQuery{})
package canopy
