package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercadillo-app/storefront/internal/auth"
	"github.com/mercadillo-app/storefront/internal/cache"
	"github.com/mercadillo-app/storefront/internal/cart"
	"github.com/mercadillo-app/storefront/internal/catalog"
	"github.com/mercadillo-app/storefront/internal/checkout"
	"github.com/mercadillo-app/storefront/internal/coupon"
	"github.com/mercadillo-app/storefront/internal/httpx"
	"github.com/mercadillo-app/storefront/internal/order"
)

//
// ---------- identity ----------
//

// identity resolves the caller. A bearer token goes through the hosted
// auth provider; X-User-ID is the dev/test fallback.
func identity(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h := c.GetHeader("Authorization"); h != "" && verifier != nil {
			token := strings.TrimPrefix(h, "Bearer ")
			uid, err := verifier.Verify(c.Request.Context(), token)
			if err != nil {
				httpx.Error(c, err)
				c.Abort()
				return
			}
			c.Set("uid", uid)
			c.Next()
			return
		}
		if uid := c.GetHeader("X-User-ID"); uid != "" {
			c.Set("uid", uid)
			c.Next()
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		c.Abort()
	}
}

func userID(c *gin.Context) string { return c.GetString("uid") }

//
// ---------- notifications (cart observer) ----------
//

// notifier collects the informational messages cart mutations emit.
type notifier struct {
	mu     sync.Mutex
	byUser map[string][]string
}

func newNotifier(carts *cart.Store) *notifier {
	n := &notifier{byUser: make(map[string][]string)}
	carts.Subscribe(n.onEvent)
	return n
}

func (n *notifier) onEvent(ev cart.Event) {
	var msg string
	switch ev.Kind {
	case cart.ItemAdded:
		msg = fmt.Sprintf("%s added to cart", ev.Name)
	case cart.ItemUpdated:
		msg = fmt.Sprintf("%s quantity set to %d", ev.Name, ev.Quantity)
	case cart.ItemRemoved:
		msg = fmt.Sprintf("%s removed from cart", ev.Name)
	case cart.Cleared:
		return // checkout already confirms on its own
	}
	n.mu.Lock()
	n.byUser[ev.UserID] = append(n.byUser[ev.UserID], msg)
	n.mu.Unlock()
}

// drain returns and clears the user's pending messages.
func (n *notifier) drain(uid string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.byUser[uid]
	delete(n.byUser, uid)
	if out == nil {
		out = []string{}
	}
	return out
}

func notificationsHandler(n *notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"notifications": n.drain(userID(c))})
	}
}

//
// ---------- catalog ----------
//

func pageParams(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

// listProductsHandler serves the browsable catalog, cache-aside on the
// default query only (filters bypass the cache).
func listProductsHandler(repo catalog.Repository, rc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pageParams(c)
		q := catalog.Query{
			Q:        c.Query("q"),
			Category: c.Query("category"),
			Limit:    limit,
			Offset:   offset,
		}

		cacheable := rc != nil && q.Q == "" && q.Category == "" && q.Offset == 0 && q.Limit == 20
		if cacheable {
			var out catalog.ListResponse
			if rc.GetJSON(c.Request.Context(), cache.ProductListKey, &out) {
				c.JSON(http.StatusOK, out)
				return
			}
		}

		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		if items == nil {
			items = []catalog.Product{}
		}
		out := catalog.ListResponse{Q: q.Q, Category: q.Category, Limit: limit, Offset: offset, Items: items}
		if cacheable {
			rc.SetJSON(c.Request.Context(), cache.ProductListKey, out)
		}
		c.JSON(http.StatusOK, out)
	}
}

func getProductHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func createProductHandler(repo catalog.Repository, rc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.Name == "" || req.Price == "" || req.VendorID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "vendor_id, name and price are required"})
			return
		}
		if _, err := decimal.NewFromString(req.Price); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
			return
		}
		if req.Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock must be non-negative"})
			return
		}
		p := &catalog.Product{
			ID:          uuid.NewString(),
			VendorID:    req.VendorID,
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Price:       req.Price,
			Stock:       req.Stock,
			ImageURL:    req.ImageURL,
			ExpiresAt:   req.ExpiresAt,
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			httpx.Error(c, err)
			return
		}
		invalidateProducts(c.Request.Context(), rc)
		c.JSON(http.StatusCreated, p)
	}
}

func updateProductHandler(repo catalog.Repository, rc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.Price != "" {
			if _, err := decimal.NewFromString(req.Price); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
				return
			}
		}
		if req.Stock != nil && *req.Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock must be non-negative"})
			return
		}
		id := c.Param("id")
		if _, err := repo.GetByID(c.Request.Context(), id); err != nil {
			httpx.Error(c, err)
			return
		}
		p := &catalog.Product{
			ID:          id,
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Price:       req.Price,
			ImageURL:    req.ImageURL,
		}
		if req.Stock != nil {
			p.Stock = *req.Stock
		}
		if req.Rating != nil {
			p.Rating = *req.Rating
		}
		if err := repo.Update(c.Request.Context(), p, req.Price != "", req.Stock != nil, req.Rating != nil); err != nil {
			httpx.Error(c, err)
			return
		}
		invalidateProducts(c.Request.Context(), rc)
		out, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func deleteProductHandler(repo catalog.Repository, rc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		invalidateProducts(c.Request.Context(), rc)
		c.Status(http.StatusNoContent)
	}
}

func invalidateProducts(ctx context.Context, rc *cache.Cache) {
	if rc != nil {
		rc.Invalidate(ctx, cache.ProductListKey)
	}
}

//
// ---------- cart & coupon ----------
//

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func addCartItemHandler(carts *cart.Store, repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		p, err := repo.GetByID(c.Request.Context(), req.ProductID)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		if err := carts.Add(userID(c), *p, req.Quantity); err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"total_items": carts.TotalItems(userID(c))})
	}
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func updateCartItemHandler(carts *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		// quantity <= 0 removes the line, same contract as the store
		carts.SetQuantity(userID(c), c.Param("product_id"), req.Quantity)
		c.JSON(http.StatusOK, gin.H{"total_items": carts.TotalItems(userID(c))})
	}
}

func removeCartItemHandler(carts *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		carts.Remove(userID(c), c.Param("product_id"))
		c.JSON(http.StatusOK, gin.H{"total_items": carts.TotalItems(userID(c))})
	}
}

func getCartHandler(orch *checkout.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := userID(c)
		items := orch.Carts.Items(uid)
		if items == nil {
			items = []cart.Item{}
		}
		subtotal, discount, total, err := orch.DisplayTotals(uid)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		resp := gin.H{
			"items":       items,
			"total_items": orch.Carts.TotalItems(uid),
			"subtotal":    subtotal.StringFixed(2),
			"discount":    discount.StringFixed(2),
			"total":       total.StringFixed(2),
		}
		if cp, ok := orch.Coupons.Active(uid); ok {
			resp["coupon"] = cp
		}
		c.JSON(http.StatusOK, resp)
	}
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

func applyCouponHandler(engine *coupon.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req applyCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
			return
		}
		cp, err := engine.Apply(userID(c), req.Code)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, cp)
	}
}

func removeCouponHandler(engine *coupon.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		engine.Remove(userID(c))
		c.Status(http.StatusNoContent)
	}
}

//
// ---------- checkout ----------
//

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method"`
}

func checkoutHandler(orch *checkout.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.PaymentMethod == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment_method is required"})
			return
		}
		sum, err := orch.Checkout(c.Request.Context(), userID(c), req.PaymentMethod)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, sum)
	}
}

//
// ---------- orders ----------
//

/// Order rows are access-restricted to their participants: a buyer sees
// only their own orders, a vendor only orders containing its products.
func listUserOrdersHandler(repo order.Repository, rc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID(c) != c.Param("user_id") {
			httpx.Error(c, auth.ErrForbidden)
			return
		}
		listProjectedOrders(c, rc, cache.UserOrdersKey(c.Param("user_id")), func(ctx context.Context, limit, offset int) ([]order.Order, error) {
			return repo.ListByUser(ctx, c.Param("user_id"), limit, offset)
		}, repo)
	}
}

func listVendorOrdersHandler(repo order.Repository, rc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID(c) != c.Param("vendor_id") {
			httpx.Error(c, auth.ErrForbidden)
			return
		}
		listProjectedOrders(c, rc, cache.VendorOrdersKey(c.Param("vendor_id")), func(ctx context.Context, limit, offset int) ([]order.Order, error) {
			return repo.ListByVendor(ctx, c.Param("vendor_id"), limit, offset)
		}, repo)
	}
}

func listProjectedOrders(c *gin.Context, rc *cache.Cache, key string, list func(context.Context, int, int) ([]order.Order, error), repo order.Repository) {
	limit, offset := pageParams(c)
	cacheable := rc != nil && offset == 0 && limit == 20
	if cacheable {
		var out []order.Projected
		if rc.GetJSON(c.Request.Context(), key, &out) {
			c.JSON(http.StatusOK, gin.H{"orders": out})
			return
		}
	}

	orders, err := list(c.Request.Context(), limit, offset)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	var items map[string][]order.Item
	if len(ids) > 0 {
		items, err = repo.ItemsForOrders(c.Request.Context(), ids)
		if err != nil {
			httpx.Error(c, err)
			return
		}
	}
	out := order.Project(orders, items)
	if cacheable {
		rc.SetJSON(c.Request.Context(), key, out)
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// orderParticipant reports whether uid is the buyer or one of the
// vendors on the order.
func orderParticipant(uid string, o *order.Order, items []order.Item) bool {
	if uid == o.UserID {
		return true
	}
	for _, it := range items {
		if it.VendorID != "" && it.VendorID == uid {
			return true
		}
	}
	return false
}

func updateOrderStatusHandler(repo order.Repository, rc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
			return
		}
		if !order.ValidStatus(req.Status) {
			httpx.Error(c, order.ErrInvalidStatus)
			return
		}
		id := c.Param("id")
		o, items, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		if !orderParticipant(userID(c), o, items) {
			httpx.Error(c, auth.ErrForbidden)
			return
		}
		if err := repo.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
			httpx.Error(c, err)
			return
		}
		if rc != nil {
			// cancellation restocks, so the product list may be stale too
			keys := []string{cache.ProductListKey, cache.UserOrdersKey(o.UserID)}
			seen := make(map[string]bool)
			for _, it := range items {
				if it.VendorID != "" && !seen[it.VendorID] {
					seen[it.VendorID] = true
					keys = append(keys, cache.VendorOrdersKey(it.VendorID))
				}
			}
			rc.Invalidate(c.Request.Context(), keys...)
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
	}
}
