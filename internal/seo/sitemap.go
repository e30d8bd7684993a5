// Package seo builds robots.txt and the XML sitemap of the public site.
package seo

import (
	"encoding/xml"
	"net/url"
	"strconv"
	"strings"

	"github.com/olegiv/campjam-go/internal/model"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Change frequencies used by the site.
const (
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapBuilder builds sitemap XML for the home page and the project gallery.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
}

// NewSitemapBuilder creates a new sitemap builder.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{
		siteURL: strings.TrimSuffix(siteURL, "/"),
		urls:    make([]SitemapURL, 0),
	}
}

// AddHomepage adds the home page. Reviews change it often.
func (b *SitemapBuilder) AddHomepage() {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + "/",
		ChangeFreq: ChangeFreqDaily,
		Priority:   "1.0",
	})
}

// AddGallery adds the project list and one filtered view per category.
func (b *SitemapBuilder) AddGallery(categories []string) {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + "/projects",
		ChangeFreq: ChangeFreqWeekly,
		Priority:   "0.8",
	})
	for _, c := range categories {
		b.urls = append(b.urls, SitemapURL{
			Loc:        b.siteURL + "/projects?category=" + url.QueryEscape(c),
			ChangeFreq: ChangeFreqWeekly,
			Priority:   "0.5",
		})
	}
}

// AddProjects adds the lightbox page of each project.
func (b *SitemapBuilder) AddProjects(projects []model.Project) {
	for _, p := range projects {
		b.urls = append(b.urls, SitemapURL{
			Loc:        b.siteURL + "/projects/" + strconv.Itoa(p.ID),
			ChangeFreq: ChangeFreqMonthly,
			Priority:   "0.6",
		})
	}
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(output, xmlBytes...), nil
}

// GenerateSitemap builds the sitemap of the whole public site.
func GenerateSitemap(siteURL string, categories []string, projects []model.Project) ([]byte, error) {
	builder := NewSitemapBuilder(siteURL)
	builder.AddHomepage()
	builder.AddGallery(categories)
	builder.AddProjects(projects)
	return builder.Build()
}
