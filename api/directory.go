package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// GetAgency looks an agency up by id within the organization. A nil agency
// with a nil error means the backend has no such agency.
func (c *Client) GetAgency(ctx context.Context, rc RequestContext, id int64) (*Agency, error) {
	q := url.Values{}
	q.Set("organization", rc.organization())
	q.Set("id", strconv.FormatInt(id, 10))

	req, err := c.newRequest(ctx, rc, http.MethodGet, "/agencies/", q, nil)
	if err != nil {
		return nil, err
	}

	var agencies []Agency
	if err := c.doList(req, &agencies); err != nil {
		return nil, err
	}
	for i := range agencies {
		if agencies[i].ID == id {
			return &agencies[i], nil
		}
	}
	return nil, nil
}

func (c *Client) ListShirkas(ctx context.Context, rc RequestContext) ([]Shirka, error) {
	q := url.Values{}
	q.Set("organization", rc.organization())

	req, err := c.newRequest(ctx, rc, http.MethodGet, "/shirkas/", q, nil)
	if err != nil {
		return nil, err
	}

	var shirkas []Shirka
	if err := c.doList(req, &shirkas); err != nil {
		return nil, err
	}
	return shirkas, nil
}

// ListBranches returns the branches of the request's organization. The
// endpoint is not organization-filtered server side.
func (c *Client) ListBranches(ctx context.Context, rc RequestContext) ([]Branch, error) {
	req, err := c.newRequest(ctx, rc, http.MethodGet, "/branches/", nil, nil)
	if err != nil {
		return nil, err
	}

	var all []Branch
	if err := c.doList(req, &all); err != nil {
		return nil, err
	}
	branches := make([]Branch, 0, len(all))
	for _, branch := range all {
		if branch.Organization.ID == rc.OrganizationID {
			branches = append(branches, branch)
		}
	}
	return branches, nil
}
