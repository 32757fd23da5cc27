package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/plexdigest/internal/models"
)

// NoInformation is shown for items that could not be enriched
const NoInformation = "No additional information available."

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var digestTemplate = template.Must(template.ParseFS(templateFS, "templates/digest.html.tmpl"))

// Options controls presentation of the digest
type Options struct {
	Title                string
	PlaceholderPosterURL string
}

type pageView struct {
	Title         string
	Since         string
	Generated     string
	ServerVersion string
	Movies        []entryView
	Shows         []entryView
	MovieCount    int
	ShowCount     int
	NotFound      int
	Empty         bool
}

type entryView struct {
	Title         string
	Year          string
	PosterURL     string
	PosterWidth   int
	Found         bool
	Genres        string
	ContentRating string
	Runtime       string
	Vote          string
	Overview      string
	Cast          string
	IMDBURL       string
	TMDBURL       string
	Seasons       []string
}

// Render produces the HTML document of a digest
func Render(digest *models.Digest, opts Options) ([]byte, error) {
	if digest == nil {
		return nil, fmt.Errorf("nil digest")
	}

	page := pageView{
		Title:         opts.Title,
		Since:         formatDate(digest.Since),
		Generated:     formatDate(digest.GeneratedAt),
		ServerVersion: digest.ServerVersion,
		MovieCount:    digest.MovieCount,
		ShowCount:     digest.ShowCount,
		NotFound:      digest.MoviesNotFound + digest.ShowsNotFound,
		Empty:         digest.IsEmpty(),
	}
	if page.Title == "" {
		page.Title = "Recently added"
	}

	for _, e := range digest.Movies {
		page.Movies = append(page.Movies, newEntryView(e, opts.PlaceholderPosterURL))
	}
	for _, e := range digest.Shows {
		page.Shows = append(page.Shows, newEntryView(e, opts.PlaceholderPosterURL))
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("failed to render digest: %w", err)
	}
	return buf.Bytes(), nil
}

func newEntryView(e models.DigestEntry, placeholder string) entryView {
	if e.Found == nil {
		view := entryView{
			PosterURL: placeholder,
			Overview:  NoInformation,
		}
		if e.Missing != nil {
			view.Title = e.Missing.Title
			if e.Missing.Year != nil {
				view.Year = strconv.Itoa(*e.Missing.Year)
			}
			view.Seasons = seasonLabels(e.Missing.Seasons)
		}
		return view
	}

	r := e.Found
	view := entryView{
		Title:         r.Title,
		Year:          r.DisplayYear,
		PosterURL:     r.PosterURL,
		PosterWidth:   r.PosterWidth,
		Found:         true,
		Genres:        joinGenres(r.Genres),
		ContentRating: r.ContentRating,
		Vote:          r.VoteLabel(),
		Overview:      r.Overview,
		Cast:          strings.Join(r.Cast, ", "),
		Seasons:       seasonLabels(r.Seasons),
	}

	if !r.HasPoster() {
		view.PosterURL = placeholder
		view.PosterWidth = 0
	}
	if r.RuntimeMinutes != nil && *r.RuntimeMinutes > 0 {
		view.Runtime = fmt.Sprintf("%d min", *r.RuntimeMinutes)
	}
	if view.Overview == "" {
		view.Overview = NoInformation
	}
	if r.IMDBID != "" {
		view.IMDBURL = "https://www.imdb.com/title/" + r.IMDBID + "/"
	}
	if r.TMDBID > 0 {
		kind := "movie"
		if r.Kind == models.KindShow {
			kind = "tv"
		}
		view.TMDBURL = fmt.Sprintf("https://www.themoviedb.org/%s/%d", kind, r.TMDBID)
	}
	return view
}

// joinGenres only joins when there is more than one genre
func joinGenres(genres []string) string {
	switch len(genres) {
	case 0:
		return ""
	case 1:
		return genres[0]
	default:
		return strings.Join(genres, ", ")
	}
}

func seasonLabels(seasons []models.SeasonSummary) []string {
	var labels []string
	for _, s := range seasons {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			title = fmt.Sprintf("Season %d", s.Index)
		}
		labels = append(labels, fmt.Sprintf("%s - %s", title, s.EpisodeLabel()))
	}
	return labels
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}
