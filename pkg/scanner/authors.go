package scanner

import (
	"context"
	"strings"

	"github.com/robinjoseph08/golib/logger"
	"github.com/samanbooks/samanbooks/pkg/authors"
	"github.com/samanbooks/samanbooks/pkg/mediafile"
	"github.com/samanbooks/samanbooks/pkg/metadata"
	"github.com/samanbooks/samanbooks/pkg/models"
)

// enrichAuthor fills in biography, dates, links and photo for a newly
// created author from the author provider. Failures are logged and
// otherwise ignored.
func (s *Scanner) enrichAuthor(ctx context.Context, author *models.Author) {
	log := logger.FromContext(ctx).Data(logger.Data{"author_id": author.ID, "author": author.Name})

	candidates, err := s.authorProvider.SearchAuthor(ctx, author.Name)
	if err != nil || len(candidates) == 0 {
		return
	}
	match := bestAuthorMatch(author.Name, candidates)
	if match == nil || match.Key == "" {
		return
	}

	details, err := s.authorProvider.GetAuthorDetails(ctx, match.Key)
	if err != nil || details == nil {
		return
	}

	update := authors.AuthorDetails{
		Biography:   optional(details.Biography),
		BirthDate:   optional(details.BirthDate),
		DeathDate:   optional(details.DeathDate),
		Nationality: optional(details.Nationality),
		ProviderKey: optional(match.Key),
	}
	for name, link := range details.Links {
		if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
			if update.SocialLinks == nil {
				update.SocialLinks = map[string]string{}
			}
			update.SocialLinks[name] = link
		}
	}
	if details.PhotoURL != "" {
		update.PhotoFingerprint = optional(mediafile.Fingerprint([]byte(details.PhotoURL)))
	}

	if err := s.authorService.ApplyDetails(ctx, author, update); err != nil {
		log.Warn("failed to apply author details", logger.Data{"provider": s.authorProvider.Name(), "error": err.Error()})
		return
	}
	log.Debug("enriched author", logger.Data{"provider": s.authorProvider.Name(), "key": match.Key})
}

// bestAuthorMatch prefers a candidate whose name matches exactly, then the
// provider's first result.
func bestAuthorMatch(name string, candidates []*metadata.AuthorRecord) *metadata.AuthorRecord {
	key := models.NameKey(name)
	for _, c := range candidates {
		if models.NameKey(c.Name) == key {
			return c
		}
	}
	if strings.TrimSpace(candidates[0].Name) == "" {
		return nil
	}
	return candidates[0]
}
