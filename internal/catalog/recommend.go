package catalog

import (
	"context"
	"sync"

	"github.com/iliyamo/pickflix/internal/model"
)

// NoDescription replaces an empty overview.
const NoDescription = "No description available"

// Recommend builds a recommendation batch for movieID: the similar movies,
// each with its poster and description.  Poster lookups run concurrently;
// the batch keeps the catalog's order.
func Recommend(ctx context.Context, cat Catalog, movieID int64) []model.Recommendation {
	similar := cat.Similar(ctx, movieID)
	if len(similar) == 0 {
		return nil
	}

	batch := make([]model.Recommendation, len(similar))
	var wg sync.WaitGroup
	for i, m := range similar {
		desc := m.Overview
		if desc == "" {
			desc = NoDescription
		}
		batch[i] = model.Recommendation{Movie: m, Name: m.Title, Description: desc}

		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			if poster, ok := cat.PosterURL(ctx, id); ok {
				batch[i].PosterURL = poster
			}
		}(i, m.ID)
	}
	wg.Wait()
	return batch
}
