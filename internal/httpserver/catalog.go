package httpserver

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// listProducts proxies the catalog listing. A taxon_id filter wins over a
// perma_link one; both carry the page through.
func (h *handlers) listProducts(c *gin.Context) {
	query := url.Values{}
	if taxonID := c.Query("taxon_id"); taxonID != "" {
		query.Set("taxon_id", taxonID)
	} else if permaLink := c.Query("perma_link"); permaLink != "" {
		query.Set("perma_link", permaLink)
	}
	if page := c.Query("page"); page != "" {
		query.Set("page", page)
	}

	endpoint := "/api/products"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	h.relay(c, http.MethodGet, endpoint, nil)
}

func (h *handlers) getProduct(c *gin.Context) {
	endpoint := fmt.Sprintf("/api/products/%s", url.PathEscape(c.Param("id")))
	h.relay(c, http.MethodGet, endpoint, nil)
}

func (h *handlers) topRatedProducts(c *gin.Context) {
	endpoint := "/api/products/top_rated?permalink=" + url.QueryEscape(c.Query("permalink"))
	h.relay(c, http.MethodGet, endpoint, nil)
}

func (h *handlers) listTaxons(c *gin.Context) {
	h.relay(c, http.MethodGet, "/api/taxons", nil)
}

// getTaxon treats the dynamic id segment as the permalink.
func (h *handlers) getTaxon(c *gin.Context) {
	endpoint := fmt.Sprintf("/api/taxons/%s", url.PathEscape(c.Param("id")))
	h.relay(c, http.MethodGet, endpoint, nil)
}

func (h *handlers) getTaxonProducts(c *gin.Context) {
	endpoint := fmt.Sprintf("/api/taxons/%s/products", url.PathEscape(c.Param("id")))
	h.relay(c, http.MethodGet, endpoint, nil)
}

// searchProducts passes the full query string through to the search index.
func (h *handlers) searchProducts(c *gin.Context) {
	endpoint := "/api/search/products"
	if raw := c.Request.URL.RawQuery; raw != "" {
		endpoint += "?" + raw
	}
	h.relay(c, http.MethodGet, endpoint, nil)
}

// getStore proxies store config for branding and hero content.
func (h *handlers) getStore(c *gin.Context) {
	endpoint := fmt.Sprintf("/api/stores/%s", url.PathEscape(c.Param("id")))
	h.relay(c, http.MethodGet, endpoint, nil)
}
