// Package topicsearch embeds the topicsearch ranking pipeline in a Go program.
//
// The client talks to Elasticsearch directly; no topicsearch server is needed.
// A text query can be biased towards the topics of documents the user liked
// and away from the ones they disliked:
//
//	client, _ := topicsearch.New(ctx,
//	    topicsearch.WithElasticsearch("documents", "http://localhost:9200"),
//	    topicsearch.WithAuxiliaryTerm("service", 1),
//	)
//	res, _ := client.Search(ctx, topicsearch.Query{
//	    Text:     "deep sea",
//	    Liked:    []string{"doc-12", "doc-40"},
//	    Disliked: []string{"doc-7"},
//	})
//	for _, h := range res.Hits {
//	    page, _ := topicsearch.DecodeSource[Page](h)
//	    fmt.Println(h.Score, page.Title)
//	}
//
// Autocomplete and Suggest serve the completion fields of the same index.
// Request counters are kept in Redis when WithRedisUsage is set.
package topicsearch
