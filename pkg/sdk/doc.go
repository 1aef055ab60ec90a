// Package docmind embeds the docmind document question-answering pipeline
// in a Go program without running the HTTP service.
//
// The client structures uploaded pages into sections, indexes their chunks
// into an in-memory or Redis vector index and answers questions with
// citations back to the source pages.
//
//	client, _ := docmind.New(ctx,
//	    docmind.WithMemory(""),
//	    docmind.WithCompleter(myLLM),
//	)
//	defer client.Close()
//
//	res, _ := client.Upload(ctx, docmind.TextDocument{
//	    Filename: "paper.pdf",
//	    Pages:    []string{"Abstract\nWe study ..."},
//	})
//	ans, _ := client.Ask(ctx, docmind.Question{Text: "What was measured?"})
package docmind
