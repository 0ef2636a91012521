package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoader() *CollyLoader {
	return NewCollyLoader(CollyConfig{
		Parallelism: 1,
		Delay:       time.Millisecond,
		Timeout:     5 * time.Second,
	}, nil)
}

func TestCollyLoader_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Admissions 2021</title></head><body>
			<article>
				<h1>B.Tech Admissions</h1>
				<p>Admissions to the B.Tech programme open in June every year.</p>
				<p>Candidates must qualify the KEAM entrance examination.</p>
			</article>
			<script>console.log("tracking")</script>
		</body></html>`)
	}))
	defer srv.Close()

	page, err := testLoader().Load(context.Background(), srv.URL+"/b-tech-admissions-2021/")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/b-tech-admissions-2021/", page.URL)
	assert.NotEmpty(t, page.Title)
	assert.Contains(t, page.Text, "Admissions to the B.Tech programme")
	assert.NotContains(t, page.Text, "console.log", "script content must not leak into text")
}

func TestCollyLoader_Load_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testLoader().Load(context.Background(), srv.URL+"/missing/")
	assert.Error(t, err)
}

func TestCollyLoader_Load_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testLoader().Load(ctx, "http://127.0.0.1:1/never/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollyLoader_LoadSitemap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<url><loc>https://mgmits.ac.in/b-tech-admissions-2021/</loc></url>
	<url><loc>https://mgmits.ac.in/contact-us/</loc></url>
	<url><loc> </loc></url>
</urlset>`)
	}))
	defer srv.Close()

	urls, err := testLoader().LoadSitemap(context.Background(), srv.URL+"/post-sitemap2.xml")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://mgmits.ac.in/b-tech-admissions-2021/",
		"https://mgmits.ac.in/contact-us/",
	}, urls, "blank loc entries are dropped")
}

func TestTitleFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://mgmits.ac.in/b-tech-admissions-2021/", "b-tech-admissions-2021"},
		{"https://mgmits.ac.in/contact-us", "contact-us"},
		{"https://mgmits.ac.in/", "MITS Page"},
		{"https://mgmits.ac.in", "MITS Page"},
	}

	for _, tt := range tests {
		t.Run(tt.rawURL, func(t *testing.T) {
			t.Parallel()
			u, err := url.Parse(tt.rawURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titleFromURL(u))
		})
	}
}

func TestExtractPage_TitleFallsBackToURL(t *testing.T) {
	t.Parallel()

	body := []byte(`<html><head></head><body><p>Campus life at MITS is vibrant with clubs and events held through the year.</p></body></html>`)
	page, err := extractPage("https://mgmits.ac.in/campus-life/", body)
	require.NoError(t, err)

	assert.Equal(t, "campus-life", page.Title)
	assert.Contains(t, page.Text, "Campus life at MITS")
}
