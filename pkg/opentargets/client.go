package opentargets

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.platform.opentargets.org/api/v4"

// ErrNotFound indicates the platform has no record for the requested entity.
var ErrNotFound = eris.New("opentargets: not found")

// Client queries the Open Targets Platform GraphQL API.
type Client interface {
	GetTargetInfo(ctx context.Context, targetID string) (*Target, error)
	SearchTarget(ctx context.Context, symbol string) (*Target, error)
	SearchDisease(ctx context.Context, query string) (*Disease, error)
	GetAssociationScore(ctx context.Context, targetID, diseaseID string) (*Association, error)
	GetTractability(ctx context.Context, targetID string) ([]TractabilityEntry, error)
	GetSafetyLiabilities(ctx context.Context, targetID string) ([]SafetyLiability, error)
	GetKnownDrugs(ctx context.Context, targetID string) ([]KnownDrugRow, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
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

// NewClient creates an Open Targets Platform client.
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

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// query posts a GraphQL document and decodes the data envelope into out.
func (c *httpClient) query(ctx context.Context, gql string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: gql, Variables: vars})
	if err != nil {
		return eris.Wrap(err, "opentargets: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "opentargets: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "opentargets: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "opentargets: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("opentargets: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return eris.Wrap(err, "opentargets: unmarshal envelope")
	}
	if len(envelope.Errors) > 0 {
		return eris.Errorf("opentargets: graphql error: %s", envelope.Errors[0].Message)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return eris.Wrap(err, "opentargets: unmarshal data")
	}
	return nil
}

const targetInfoQuery = `
query TargetInfo($id: String!) {
  target(ensemblId: $id) {
    id
    approvedSymbol
    approvedName
    biotype
    functionDescriptions
    genomicLocation { chromosome start end }
  }
}`

func (c *httpClient) GetTargetInfo(ctx context.Context, targetID string) (*Target, error) {
	var data struct {
		Target *Target `json:"target"`
	}
	if err := c.query(ctx, targetInfoQuery, map[string]any{"id": targetID}, &data); err != nil {
		return nil, err
	}
	if data.Target == nil {
		return nil, ErrNotFound
	}
	return data.Target, nil
}

const searchTargetQuery = `
query SearchTarget($q: String!) {
  search(queryString: $q, entityNames: ["target"], page: {index: 0, size: 1}) {
    hits {
      id
      object {
        ... on Target {
          id
          approvedSymbol
          approvedName
          biotype
          functionDescriptions
          genomicLocation { chromosome start end }
        }
      }
    }
  }
}`

func (c *httpClient) SearchTarget(ctx context.Context, symbol string) (*Target, error) {
	var data struct {
		Search struct {
			Hits []struct {
				ID     string  `json:"id"`
				Object *Target `json:"object"`
			} `json:"hits"`
		} `json:"search"`
	}
	if err := c.query(ctx, searchTargetQuery, map[string]any{"q": symbol}, &data); err != nil {
		return nil, err
	}
	if len(data.Search.Hits) == 0 || data.Search.Hits[0].Object == nil {
		return nil, ErrNotFound
	}
	return data.Search.Hits[0].Object, nil
}

const searchDiseaseQuery = `
query SearchDisease($q: String!) {
  search(queryString: $q, entityNames: ["disease"], page: {index: 0, size: 1}) {
    hits {
      id
      object {
        ... on Disease {
          id
          name
          description
        }
      }
    }
  }
}`

func (c *httpClient) SearchDisease(ctx context.Context, query string) (*Disease, error) {
	var data struct {
		Search struct {
			Hits []struct {
				ID     string   `json:"id"`
				Object *Disease `json:"object"`
			} `json:"hits"`
		} `json:"search"`
	}
	if err := c.query(ctx, searchDiseaseQuery, map[string]any{"q": query}, &data); err != nil {
		return nil, err
	}
	if len(data.Search.Hits) == 0 || data.Search.Hits[0].Object == nil {
		return nil, ErrNotFound
	}
	return data.Search.Hits[0].Object, nil
}

const associationQuery = `
query Association($targetId: String!, $diseaseId: String!) {
  disease(efoId: $diseaseId) {
    associatedTargets(Bs: [$targetId], page: {index: 0, size: 1}) {
      rows {
        score
        datatypeScores { id score }
      }
    }
  }
}`

func (c *httpClient) GetAssociationScore(ctx context.Context, targetID, diseaseID string) (*Association, error) {
	var data struct {
		Disease *struct {
			AssociatedTargets struct {
				Rows []Association `json:"rows"`
			} `json:"associatedTargets"`
		} `json:"disease"`
	}
	vars := map[string]any{"targetId": targetID, "diseaseId": diseaseID}
	if err := c.query(ctx, associationQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Disease == nil || len(data.Disease.AssociatedTargets.Rows) == 0 {
		return nil, ErrNotFound
	}
	return &data.Disease.AssociatedTargets.Rows[0], nil
}

const tractabilityQuery = `
query Tractability($id: String!) {
  target(ensemblId: $id) {
    tractability { modality label value }
  }
}`

func (c *httpClient) GetTractability(ctx context.Context, targetID string) ([]TractabilityEntry, error) {
	var data struct {
		Target *struct {
			Tractability []TractabilityEntry `json:"tractability"`
		} `json:"target"`
	}
	if err := c.query(ctx, tractabilityQuery, map[string]any{"id": targetID}, &data); err != nil {
		return nil, err
	}
	if data.Target == nil {
		return nil, ErrNotFound
	}
	return data.Target.Tractability, nil
}

const safetyQuery = `
query Safety($id: String!) {
  target(ensemblId: $id) {
    safetyLiabilities {
      event
      eventId
      datasource
      literature
      url
      effects { direction dosing }
      biosamples { tissueLabel tissueId }
    }
  }
}`

func (c *httpClient) GetSafetyLiabilities(ctx context.Context, targetID string) ([]SafetyLiability, error) {
	var data struct {
		Target *struct {
			SafetyLiabilities []SafetyLiability `json:"safetyLiabilities"`
		} `json:"target"`
	}
	if err := c.query(ctx, safetyQuery, map[string]any{"id": targetID}, &data); err != nil {
		return nil, err
	}
	if data.Target == nil {
		return nil, ErrNotFound
	}
	return data.Target.SafetyLiabilities, nil
}

const knownDrugsQuery = `
query KnownDrugs($id: String!) {
  target(ensemblId: $id) {
    knownDrugs(size: 50) {
      rows {
        drugId
        prefName
        phase
        mechanismOfAction
        disease { id name }
        status
      }
    }
  }
}`

func (c *httpClient) GetKnownDrugs(ctx context.Context, targetID string) ([]KnownDrugRow, error) {
	var data struct {
		Target *struct {
			KnownDrugs struct {
				Rows []struct {
					DrugID            string  `json:"drugId"`
					PrefName          string  `json:"prefName"`
					Phase             float64 `json:"phase"`
					MechanismOfAction string  `json:"mechanismOfAction"`
					Disease           struct {
						ID   string `json:"id"`
						Name string `json:"name"`
					} `json:"disease"`
					Status string `json:"status"`
				} `json:"rows"`
			} `json:"knownDrugs"`
		} `json:"target"`
	}
	if err := c.query(ctx, knownDrugsQuery, map[string]any{"id": targetID}, &data); err != nil {
		return nil, err
	}
	if data.Target == nil {
		return nil, ErrNotFound
	}

	rows := make([]KnownDrugRow, 0, len(data.Target.KnownDrugs.Rows))
	for _, r := range data.Target.KnownDrugs.Rows {
		rows = append(rows, KnownDrugRow{
			DrugID:            r.DrugID,
			PrefName:          r.PrefName,
			Phase:             int(r.Phase),
			MechanismOfAction: r.MechanismOfAction,
			DiseaseID:         r.Disease.ID,
			DiseaseName:       r.Disease.Name,
			Status:            r.Status,
		})
	}
	return rows, nil
}
