package ctgov

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://clinicaltrials.gov/api/v2"

// Client searches the ClinicalTrials.gov v2 registry.
type Client interface {
	SearchTrials(ctx context.Context, gene, disease string) ([]Trial, error)
	FailedTrials(ctx context.Context, gene, disease string) ([]Trial, error)
	PhaseDistribution(ctx context.Context, gene, disease string) (map[int]int, error)
}

// Trial is one registry study, flattened from the v2 protocol sections.
type Trial struct {
	NCTID          string
	Title          string
	Phase          int
	OverallStatus  string
	WhyStopped     string
	Sponsor        string
	StartDate      *time.Time
	CompletionDate *time.Time
}

// URL returns the registry page for the trial.
func (t Trial) URL() string {
	return "https://clinicaltrials.gov/study/" + t.NCTID
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPageSize overrides the default page size (100).
func WithPageSize(n int) Option {
	return func(c *httpClient) {
		c.pageSize = n
	}
}

type httpClient struct {
	baseURL  string
	http     *http.Client
	pageSize int
}

// NewClient creates a ClinicalTrials.gov client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:  defaultBaseURL,
		pageSize: 100,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type studiesResponse struct {
	Studies       []study `json:"studies"`
	NextPageToken string  `json:"nextPageToken"`
}

type study struct {
	ProtocolSection struct {
		IdentificationModule struct {
			NCTID      string `json:"nctId"`
			BriefTitle string `json:"briefTitle"`
		} `json:"identificationModule"`
		StatusModule struct {
			OverallStatus   string `json:"overallStatus"`
			WhyStopped      string `json:"whyStopped"`
			StartDateStruct struct {
				Date string `json:"date"`
			} `json:"startDateStruct"`
			CompletionDateStruct struct {
				Date string `json:"date"`
			} `json:"completionDateStruct"`
		} `json:"statusModule"`
		DesignModule struct {
			Phases []string `json:"phases"`
		} `json:"designModule"`
		SponsorCollaboratorsModule struct {
			LeadSponsor struct {
				Name string `json:"name"`
			} `json:"leadSponsor"`
		} `json:"sponsorCollaboratorsModule"`
	} `json:"protocolSection"`
}

// search pages through /studies until the registry stops returning a
// continuation token.
func (c *httpClient) search(ctx context.Context, params url.Values) ([]Trial, error) {
	var all []Trial
	pageToken := ""
	for {
		p := url.Values{}
		for k, vs := range params {
			p[k] = vs
		}
		p.Set("pageSize", fmt.Sprint(c.pageSize))
		p.Set("format", "json")
		if pageToken != "" {
			p.Set("pageToken", pageToken)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/studies?"+p.Encode(), nil)
		if err != nil {
			return nil, eris.Wrap(err, "ctgov: create request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "ctgov: send request")
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, eris.Wrap(readErr, "ctgov: read response")
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("ctgov: unexpected status %d: %s", resp.StatusCode, string(body))
		}

		var page studiesResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, eris.Wrap(err, "ctgov: unmarshal response")
		}

		for _, s := range page.Studies {
			all = append(all, flatten(s))
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	return all, nil
}

func flatten(s study) Trial {
	ps := s.ProtocolSection
	return Trial{
		NCTID:          ps.IdentificationModule.NCTID,
		Title:          ps.IdentificationModule.BriefTitle,
		Phase:          normalizePhases(ps.DesignModule.Phases),
		OverallStatus:  ps.StatusModule.OverallStatus,
		WhyStopped:     ps.StatusModule.WhyStopped,
		Sponsor:        ps.SponsorCollaboratorsModule.LeadSponsor.Name,
		StartDate:      parseRegistryDate(ps.StatusModule.StartDateStruct.Date),
		CompletionDate: parseRegistryDate(ps.StatusModule.CompletionDateStruct.Date),
	}
}

// normalizePhases collapses the registry's phase labels to a single int,
// taking the highest phase for combined designs like PHASE2|PHASE3.
func normalizePhases(phases []string) int {
	highest := 0
	for _, p := range phases {
		switch strings.ToUpper(strings.TrimSpace(p)) {
		case "PHASE4":
			if highest < 4 {
				highest = 4
			}
		case "PHASE3":
			if highest < 3 {
				highest = 3
			}
		case "PHASE2":
			if highest < 2 {
				highest = 2
			}
		case "PHASE1", "EARLY_PHASE1":
			if highest < 1 {
				highest = 1
			}
		}
	}
	return highest
}

// parseRegistryDate accepts the registry's YYYY-MM-DD and YYYY-MM forms.
func parseRegistryDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func (c *httpClient) SearchTrials(ctx context.Context, gene, disease string) ([]Trial, error) {
	params := url.Values{}
	params.Set("query.intr", gene)
	params.Set("query.cond", disease)
	return c.search(ctx, params)
}

func (c *httpClient) FailedTrials(ctx context.Context, gene, disease string) ([]Trial, error) {
	params := url.Values{}
	params.Set("query.intr", gene)
	params.Set("query.cond", disease)
	params.Set("filter.overallStatus", "TERMINATED|WITHDRAWN|SUSPENDED")
	return c.search(ctx, params)
}

func (c *httpClient) PhaseDistribution(ctx context.Context, gene, disease string) (map[int]int, error) {
	trials, err := c.SearchTrials(ctx, gene, disease)
	if err != nil {
		return nil, err
	}
	dist := make(map[int]int)
	for _, t := range trials {
		dist[t.Phase]++
	}
	return dist, nil
}
