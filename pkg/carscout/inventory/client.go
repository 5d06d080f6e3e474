// Package inventory fetches dealer inventory feeds and normalises the
// listings into canonical vehicles.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/logging"
)

const userAgent = "carscout/1.0 (+inventory sync)"

// Dealers selects the dealers to query. An empty id list means all of them.
type Dealers interface {
	Select(ids []string) ([]dal.Dealer, error)
}

// Hints narrow an inventory fetch. Zero values fetch everything.
type Hints struct {
	Model     string
	Condition string
	DealerIDs []string
}

// Client fetches dealer feeds. It is safe for concurrent use.
type Client struct {
	// parent collector; every fetch works on a clone with its own callbacks
	collector *colly.Collector
	baseURL   string
	dealers   Dealers
	now       func() time.Time
}

// NewClient creates a client for the feed at baseURL.
func NewClient(baseURL string, timeout time.Duration, dealers Dealers) *Client {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(userAgent),
	)
	c.WithTransport(otelhttp.NewTransport(http.DefaultTransport))
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}

	return &Client{
		collector: c,
		baseURL:   strings.TrimRight(baseURL, "/"),
		dealers:   dealers,
		now:       time.Now,
	}
}

// Fetch returns every listing matching hints across the selected dealers.
func (c *Client) Fetch(ctx context.Context, hints Hints) ([]dal.Vehicle, error) {
	return c.FetchModels(ctx, []string{hints.Model}, hints)
}

// FetchModels issues one request per model and dealer page concurrently and
// concatenates the results. Any failed request fails the whole call.
func (c *Client) FetchModels(ctx context.Context, models []string, hints Hints) ([]dal.Vehicle, error) {
	dealers, err := c.dealers.Select(hints.DealerIDs)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		models = []string{""}
	}

	type task struct {
		dealer dal.Dealer
		page   page
		model  string
	}
	var tasks []task
	for _, model := range dedupeFold(models) {
		for _, d := range dealers {
			for _, p := range pagesFor(d, hints.Condition) {
				tasks = append(tasks, task{dealer: d, page: p, model: model})
			}
		}
	}

	results := make([][]dal.Vehicle, len(tasks))
	fetchedAt := c.now().UnixNano()
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		g.Go(func() error {
			idPrefix := fmt.Sprintf("%s-%d-%d", t.dealer.ID, fetchedAt, i)
			vs, err := c.fetchPage(gctx, t.dealer, t.page, t.model, idPrefix)
			if err != nil {
				return err
			}
			results[i] = vs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// vendor ids are only unique within one dealer's feed
	type key struct{ dealer, id string }
	seen := make(map[key]struct{})
	var out []dal.Vehicle
	for _, vs := range results {
		for _, v := range vs {
			k := key{dealer: v.DealerID, id: v.ID}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, v)
		}
	}

	logging.FromContext(ctx).DebugContext(ctx, "inventory fetched",
		"models", models, "requests", len(tasks), "vehicles", len(out))
	return out, nil
}

// FindByID scans every dealer's inventory for the vehicle with id. When two
// dealers report the same vendor id the first dealer in registry order wins.
func (c *Client) FindByID(ctx context.Context, id string) (dal.Vehicle, error) {
	if strings.TrimSpace(id) == "" {
		return dal.Vehicle{}, dal.ValidationError("vehicle id is required")
	}
	vs, err := c.Fetch(ctx, Hints{})
	if err != nil {
		return dal.Vehicle{}, err
	}
	for _, v := range vs {
		if v.ID == id {
			return v, nil
		}
	}
	return dal.Vehicle{}, dal.NotFoundError(fmt.Sprintf("vehicle %s not found", id))
}

func (c *Client) fetchPage(ctx context.Context, d dal.Dealer, p page, model, idPrefix string) ([]dal.Vehicle, error) {
	target, err := c.buildURL(p, model)
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory URL: %w", err)
	}

	collector := c.collector.Clone()
	collector.Context = ctx

	var (
		feed        feedResponse
		responseErr error
		status      int
	)
	collector.OnRequest(func(r *colly.Request) {
		if d.Referer != "" {
			r.Headers.Set("Referer", d.Referer)
		}
		r.Headers.Set("Accept", "application/json")
	})
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		if err := json.Unmarshal(r.Body, &feed); err != nil {
			responseErr = dal.UpstreamError(fmt.Sprintf("invalid inventory response from %s", d.ID), r.StatusCode, err)
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
		responseErr = err
	})

	visitErr := collector.Visit(target)
	collector.Wait()

	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, dal.TimeoutError("inventory request timed out", err)
		}
		return nil, err
	}
	if responseErr == nil {
		responseErr = visitErr
	}
	if responseErr != nil {
		if dal.KindOf(responseErr) != "" {
			return nil, responseErr
		}
		msg := fmt.Sprintf("inventory request for %s failed", d.ID)
		if status != 0 {
			msg = fmt.Sprintf("inventory request for %s failed with status %d", d.ID, status)
		}
		return nil, dal.UpstreamError(msg, status, responseErr)
	}

	out := make([]dal.Vehicle, 0, len(feed.Vehicles))
	for i, raw := range feed.Vehicles {
		out = append(out, normalize(raw, d, p, idPrefix, i))
	}
	return out, nil
}

func (c *Client) buildURL(p page, model string) (string, error) {
	u, err := url.Parse(c.baseURL + "/inventory")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("siteId", p.siteID)
	q.Set("pageId", p.pageID)
	if model != "" {
		q.Set("model", model)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// pagesFor lists the feed pages to query for a dealer and requested condition.
// A "new" request still reads the used page because a listing there with
// fewer than dal.NewMileageThreshold miles counts as new.
func pagesFor(d dal.Dealer, condition string) []page {
	cond := dal.Fold(condition)
	wantNew := cond != dal.ConditionUsed && !d.Has(dal.QuirkUsedOnly) && d.NewPageID != ""
	wantUsed := d.UsedPageID != ""

	var pages []page
	for _, site := range d.SiteIDs {
		if wantNew {
			pages = append(pages, page{siteID: site, pageID: d.NewPageID, isNew: true})
		}
		if wantUsed {
			pages = append(pages, page{siteID: site, pageID: d.UsedPageID})
		}
	}
	return pages
}

func dedupeFold(models []string) []string {
	seen := make(map[string]struct{}, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		key := dal.Fold(m)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}
