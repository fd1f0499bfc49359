// Package esquery compiles structured search requests into Elasticsearch
// or OpenSearch query DSL, runs them through a periodically refreshed
// backend connection and reconciles totals against the records that
// could actually be loaded.
//
//	client, _ := esquery.New(ctx,
//	    esquery.WithElasticsearch("http://localhost:9200"),
//	    esquery.WithIndex("catalog"),
//	)
//	defer client.Close()
//
//	articles, _ := client.Service("article", esquery.Discriminator("type"))
//	q := articles.NewQuery(esquery.Params{Text: "golang", Limit: 20})
//	q.Filter("status", "published").Range(esquery.Clause{"doc.created_at": map[string]any{"gte": "now-7d"}})
//	res, _ := articles.Search(ctx, q, nil)
//	fmt.Println(res.Total(), len(res.Records()))
package esquery
