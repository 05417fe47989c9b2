package chembl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://www.ebi.ac.uk/chembl/api/data"

// ErrNotFound indicates ChEMBL has no record for the requested entity.
var ErrNotFound = eris.New("chembl: not found")

// Client queries the ChEMBL REST API.
type Client interface {
	SearchTargetByGene(ctx context.Context, symbol string) ([]TargetRecord, error)
	GetMechanisms(ctx context.Context, targetChemblID string) ([]Mechanism, error)
	GetWithdrawnCompounds(ctx context.Context, targetChemblID string) ([]Molecule, error)
	SearchAdverseEffects(ctx context.Context, organSystem string) ([]DrugWarning, error)
}

// TargetRecord is one ChEMBL target entry.
type TargetRecord struct {
	TargetChemblID string `json:"target_chembl_id"`
	PrefName       string `json:"pref_name"`
	TargetType     string `json:"target_type"`
	Organism       string `json:"organism"`
}

// Mechanism is one drug mechanism-of-action record for a target.
type Mechanism struct {
	MechanismOfAction string `json:"mechanism_of_action"`
	ActionType        string `json:"action_type"`
	MoleculeChemblID  string `json:"molecule_chembl_id"`
	TargetChemblID    string `json:"target_chembl_id"`
	MaxPhase          int    `json:"max_phase"`
}

// Molecule is one compound record.
type Molecule struct {
	MoleculeChemblID string `json:"molecule_chembl_id"`
	PrefName         string `json:"pref_name"`
	MaxPhase         int    `json:"max_phase"`
	Withdrawn        bool   `json:"withdrawn_flag"`
	WithdrawnReason  string `json:"withdrawn_reason"`
	WithdrawnYear    int    `json:"withdrawn_year"`
}

// DrugWarning is one safety warning record.
type DrugWarning struct {
	MoleculeChemblID   string `json:"molecule_chembl_id"`
	WarningType        string `json:"warning_type"`
	WarningClass       string `json:"warning_class"`
	WarningDescription string `json:"warning_description"`
	WarningYear        int    `json:"warning_year"`
}

type pageMeta struct {
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
	TotalCount int    `json:"total_count"`
	Next       string `json:"next"`
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

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a ChEMBL API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
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

// get fetches path with params and decodes the JSON body into out.
func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return eris.Wrap(err, "chembl: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "chembl: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "chembl: read response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("chembl: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "chembl: unmarshal response")
	}
	return nil
}

func (c *httpClient) SearchTargetByGene(ctx context.Context, symbol string) ([]TargetRecord, error) {
	params := url.Values{}
	params.Set("q", symbol)
	params.Set("format", "json")

	var data struct {
		Targets []TargetRecord `json:"targets"`
	}
	if err := c.get(ctx, "/target/search", params, &data); err != nil {
		return nil, err
	}
	if len(data.Targets) == 0 {
		return nil, ErrNotFound
	}
	return data.Targets, nil
}

func (c *httpClient) GetMechanisms(ctx context.Context, targetChemblID string) ([]Mechanism, error) {
	var all []Mechanism
	offset := 0
	for {
		params := url.Values{}
		params.Set("target_chembl_id", targetChemblID)
		params.Set("format", "json")
		params.Set("limit", "100")
		params.Set("offset", fmt.Sprint(offset))

		var data struct {
			Mechanisms []Mechanism `json:"mechanisms"`
			PageMeta   pageMeta    `json:"page_meta"`
		}
		if err := c.get(ctx, "/mechanism", params, &data); err != nil {
			return nil, err
		}
		all = append(all, data.Mechanisms...)
		if data.PageMeta.Next == "" || len(data.Mechanisms) == 0 {
			break
		}
		offset += data.PageMeta.Limit
	}
	return all, nil
}

func (c *httpClient) GetWithdrawnCompounds(ctx context.Context, targetChemblID string) ([]Molecule, error) {
	mechanisms, err := c.GetMechanisms(ctx, targetChemblID)
	if err != nil {
		return nil, err
	}
	if len(mechanisms) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool)
	ids := ""
	for _, m := range mechanisms {
		if m.MoleculeChemblID == "" || seen[m.MoleculeChemblID] {
			continue
		}
		seen[m.MoleculeChemblID] = true
		if ids != "" {
			ids += ","
		}
		ids += m.MoleculeChemblID
	}

	params := url.Values{}
	params.Set("molecule_chembl_id__in", ids)
	params.Set("withdrawn_flag", "true")
	params.Set("format", "json")

	var data struct {
		Molecules []Molecule `json:"molecules"`
	}
	if err := c.get(ctx, "/molecule", params, &data); err != nil {
		if eris.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return data.Molecules, nil
}

func (c *httpClient) SearchAdverseEffects(ctx context.Context, organSystem string) ([]DrugWarning, error) {
	params := url.Values{}
	params.Set("warning_class__icontains", organSystem)
	params.Set("format", "json")
	params.Set("limit", "50")

	var data struct {
		DrugWarnings []DrugWarning `json:"drug_warnings"`
	}
	if err := c.get(ctx, "/drug_warning", params, &data); err != nil {
		if eris.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return data.DrugWarnings, nil
}
