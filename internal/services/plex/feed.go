package plex

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/plexdigest/internal/models"
	"github.com/amaumene/plexdigest/internal/utils"
	"github.com/sirupsen/logrus"
)

// recentlyAddedPageSize is the number of items requested per page
const recentlyAddedPageSize = 100

// ListRecentlyAdded returns the movies and seasons added since the given time,
// converted to raw media items in feed order. The feed is newest-first, so
// paging stops at a short page or once a page reaches past the cutoff.
func (c *Client) ListRecentlyAdded(ctx context.Context, since time.Time) ([]models.RawMediaItem, error) {
	cutoff := since.Unix()
	showHints := make(map[string]string)
	var items []models.RawMediaItem

	for start, pages := 0, 0; ; start += recentlyAddedPageSize {
		params := url.Values{}
		params.Set("includeGuids", "1")
		params.Set("X-Plex-Container-Start", strconv.Itoa(start))
		params.Set("X-Plex-Container-Size", strconv.Itoa(recentlyAddedPageSize))

		var resp containerResponse
		if err := c.doRequest(ctx, "/library/recentlyAdded", params, &resp); err != nil {
			return nil, err
		}
		pages++

		page := resp.MediaContainer.Metadata
		reachedCutoff := false
		for _, md := range page {
			if md.AddedAt < cutoff {
				reachedCutoff = true
				continue
			}

			switch md.Type {
			case string(models.KindMovie):
				items = append(items, toRawItem(md, movieHints(md)))
			case string(models.KindSeason):
				items = append(items, toRawItem(md, c.seasonHints(ctx, md, showHints)))
			default:
				c.logger.WithFields(logrus.Fields{
					"title": md.Title,
					"type":  md.Type,
				}).Debug("Skipping unsupported item type")
			}
		}

		if len(page) < recentlyAddedPageSize || reachedCutoff {
			c.logger.WithField("pages", pages).Debug("Finished paging recently added items")
			break
		}
	}

	c.logger.WithFields(logrus.Fields{
		"since": since.Format(time.RFC3339),
		"items": len(items),
	}).Info("Fetched recently added items")

	return items, nil
}

func movieHints(md Metadata) string {
	hints := []string{md.Guid}
	for _, g := range md.Guids {
		hints = append(hints, g.ID)
	}
	return joinHints(hints)
}

// seasonHints prefers identifiers of the parent show. A season's own guids
// point at the season, so when the parent guid carries no TVDB id the show
// metadata is fetched once per show.
func (c *Client) seasonHints(ctx context.Context, md Metadata, memo map[string]string) string {
	if _, ok := utils.ExtractTVDBID(md.ParentGuid); ok || md.ParentRatingKey == "" {
		return joinHints([]string{md.ParentGuid})
	}

	if hints, ok := memo[md.ParentRatingKey]; ok {
		return hints
	}

	hints := joinHints([]string{md.ParentGuid})
	show, err := c.getMetadata(ctx, md.ParentRatingKey)
	if err != nil {
		c.logger.WithError(err).WithField("show", md.ParentTitle).Warn("Failed to fetch show guids")
	} else {
		all := []string{md.ParentGuid, show.Guid}
		for _, g := range show.Guids {
			all = append(all, g.ID)
		}
		hints = joinHints(all)
	}

	memo[md.ParentRatingKey] = hints
	return hints
}

func toRawItem(md Metadata, hints string) models.RawMediaItem {
	item := models.RawMediaItem{
		Kind:                models.MediaKind(md.Type),
		RatingKey:           md.RatingKey,
		Title:               md.Title,
		GuidHints:           hints,
		AddedAt:             md.AddedAt,
		LibrarySectionID:    string(md.LibrarySectionID),
		LibrarySectionTitle: md.LibrarySectionTitle,
		ParentTitle:         md.ParentTitle,
		ParentThumb:         md.ParentThumb,
		SeasonIndex:         md.Index,
		EpisodeCount:        md.LeafCount,
		Thumb:               md.Thumb,
		ContentRating:       md.ContentRating,
		Summary:             md.Summary,
		DurationMinutes:     int(md.Duration / 60000),
	}

	if md.Year > 0 {
		item.Year = models.IntPtr(md.Year)
	}
	for _, role := range md.Roles {
		if role.Tag != "" {
			item.Cast = append(item.Cast, role.Tag)
		}
	}
	return item
}

func joinHints(hints []string) string {
	var out []string
	for _, h := range hints {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return strings.Join(out, " ")
}
