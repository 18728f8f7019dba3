package catalog

import "github.com/hyperjump/shiori/internal/models"

// SampleBooks returns the five-book demo catalog. Each call returns a fresh copy.
func SampleBooks() []models.Book {
	return []models.Book{
		{
			ID:     "1",
			Title:  "The Silent Garden",
			Author: "A. Ivanov",
			Year:   2019,
			Genres: []string{"Fiction", "Mystery"},
			Tags:   []string{"garden", "mystery", "family"},
			Description: "A family returns to the ancestral garden and finds long-buried secrets. " +
				"Slow-burn mystery with emotional stakes.",
		},
		{
			ID:          "2",
			Title:       "Frontend Handbook",
			Author:      "J. Developer",
			Year:        2022,
			Genres:      []string{"Non-fiction", "Programming"},
			Tags:        []string{"react", "javascript", "web"},
			Description: "Practical guide to modern frontend development with examples and exercises.",
		},
		{
			ID:          "3",
			Title:       "Midnight on the Lighthouse",
			Author:      "S. Petrova",
			Year:        2016,
			Genres:      []string{"Fiction", "Thriller"},
			Tags:        []string{"lighthouse", "sea", "thriller"},
			Description: "A tense coastal thriller where the past and present collide.",
		},
		{
			ID:          "4",
			Title:       "Learning Algorithms",
			Author:      "A. Smirnov",
			Year:        2021,
			Genres:      []string{"Non-fiction", "Programming"},
			Tags:        []string{"ml", "algorithms", "python"},
			Description: "Clear explanations of classic algorithms and practical machine learning recipes.",
		},
		{
			ID:          "5",
			Title:       "Garden of Echoes",
			Author:      "A. Ivanov",
			Year:        2020,
			Genres:      []string{"Fiction", "Drama"},
			Tags:        []string{"garden", "memory", "family"},
			Description: "Interlinked stories about memory and the places that keep them.",
		},
	}
}
