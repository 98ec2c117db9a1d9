package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercadillo-app/storefront/internal/cart"
	"github.com/mercadillo-app/storefront/internal/catalog"
	"github.com/mercadillo-app/storefront/internal/checkout"
	"github.com/mercadillo-app/storefront/internal/coupon"
	"github.com/mercadillo-app/storefront/internal/order"
)

//
// ---------- STUBS & FAKES ----------
//

// stubCatalogRepo implements catalog.Repository in memory.
type stubCatalogRepo struct {
	items map[string]*catalog.Product
}

func newStubCatalogRepo() *stubCatalogRepo {
	return &stubCatalogRepo{items: make(map[string]*catalog.Product)}
}

func (s *stubCatalogRepo) Create(ctx context.Context, p *catalog.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	s.items[p.ID] = &cp
	return nil
}

func (s *stubCatalogRepo) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	p, ok := s.items[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubCatalogRepo) List(ctx context.Context, q catalog.Query) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(s.items))
	for _, p := range s.items {
		if p.Stock > 0 {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubCatalogRepo) Update(ctx context.Context, p *catalog.Product, updatePrice, updateStock, updateRating bool) error {
	cur, ok := s.items[p.ID]
	if !ok {
		return catalog.ErrNotFound
	}
	if p.Name != "" {
		cur.Name = p.Name
	}
	if updatePrice {
		cur.Price = p.Price
	}
	if updateStock {
		cur.Stock = p.Stock
	}
	if updateRating {
		cur.Rating = p.Rating
	}
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *stubCatalogRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

func (s *stubCatalogRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// memOrderRepo implements order.Repository against the catalog stub,
// mimicking the all-or-nothing stock decrement of the real transaction.
type memOrderRepo struct {
	products *stubCatalogRepo
	orders   map[string]*order.Order
	items    map[string][]order.Item
	seq      int
}

func newMemOrderRepo(products *stubCatalogRepo) *memOrderRepo {
	return &memOrderRepo{products: products, orders: map[string]*order.Order{}, items: map[string][]order.Item{}}
}

func (m *memOrderRepo) Create(ctx context.Context, req order.CreateRequest) (*order.Order, []order.Item, error) {
	// check every line before touching any stock
	for _, ln := range req.Lines {
		p, ok := m.products.items[ln.ProductID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", order.ErrProductNotFound, ln.ProductID)
		}
		if p.Stock < ln.Quantity {
			return nil, nil, fmt.Errorf("%w for product %s", order.ErrInsufficientStock, ln.ProductID)
		}
	}
	m.seq++
	o := &order.Order{
		ID:         fmt.Sprintf("order-%03d", m.seq),
		UserID:     req.UserID,
		Status:     order.StatusPending,
		CouponCode: req.CouponCode,
		CreatedAt:  time.Now().UTC(),
	}
	subtotal := decimal.Zero
	var items []order.Item
	for _, ln := range req.Lines {
		p := m.products.items[ln.ProductID]
		p.Stock -= ln.Quantity
		unit, _ := decimal.NewFromString(p.Price)
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(ln.Quantity))))
		items = append(items, order.Item{
			ID: uuid.NewString(), OrderID: o.ID, ProductID: p.ID, VendorID: p.VendorID,
			Name: p.Name, ImageURL: p.ImageURL, Quantity: ln.Quantity, Price: p.Price,
		})
	}
	discount := subtotal.Mul(decimal.NewFromInt(int64(req.DiscountPercent))).Div(decimal.NewFromInt(100)).Round(2)
	o.Discount = discount.StringFixed(2)
	o.Total = subtotal.Sub(discount).StringFixed(2)
	m.orders[o.ID] = o
	m.items[o.ID] = items
	return o, items, nil
}

func (m *memOrderRepo) GetByID(ctx context.Context, id string) (*order.Order, []order.Item, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil, order.ErrNotFound
	}
	return o, m.items[id], nil
}

func (m *memOrderRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrderRepo) ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]order.Order, error) {
	var out []order.Order
	for id, o := range m.orders {
		for _, it := range m.items[id] {
			if it.VendorID == vendorID {
				out = append(out, *o)
				break
			}
		}
	}
	return out, nil
}

func (m *memOrderRepo) ItemsForOrders(ctx context.Context, orderIDs []string) (map[string][]order.Item, error) {
	out := make(map[string][]order.Item)
	for _, id := range orderIDs {
		if its, ok := m.items[id]; ok {
			out[id] = its
		}
	}
	return out, nil
}

func (m *memOrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if !order.ValidStatus(status) {
		return order.ErrInvalidStatus
	}
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != status && !order.CanTransition(o.Status, status) {
		return fmt.Errorf("%w: %s -> %s", order.ErrInvalidTransition, o.Status, status)
	}
	if status == order.StatusCancelled && o.Status != order.StatusCancelled {
		for _, it := range m.items[id] {
			if p, ok := m.products.items[it.ProductID]; ok {
				p.Stock += it.Quantity
			}
		}
	}
	o.Status = status
	return nil
}

//
// ---------- test router ----------
//

type env struct {
	router   *gin.Engine
	products *stubCatalogRepo
	orders   *memOrderRepo
	carts    *cart.Store
}

func newEnv() *env {
	products := newStubCatalogRepo()
	orders := newMemOrderRepo(products)
	carts := cart.NewStore()
	coupons := coupon.NewEngine(coupon.DefaultCatalog())
	orch := checkout.New(carts, coupons, orders, nil)
	notices := newNotifier(carts)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/products", listProductsHandler(products, nil))
	r.GET("/products/:id", getProductHandler(products))
	r.POST("/products", createProductHandler(products, nil))
	r.PUT("/products/:id", updateProductHandler(products, nil))
	r.DELETE("/products/:id", deleteProductHandler(products, nil))

	authed := r.Group("/", identity(nil))
	authed.GET("/cart", getCartHandler(orch))
	authed.POST("/cart/items", addCartItemHandler(carts, products))
	authed.PUT("/cart/items/:product_id", updateCartItemHandler(carts))
	authed.DELETE("/cart/items/:product_id", removeCartItemHandler(carts))
	authed.POST("/cart/coupon", applyCouponHandler(coupons))
	authed.DELETE("/cart/coupon", removeCouponHandler(coupons))
	authed.POST("/checkout", checkoutHandler(orch))
	authed.GET("/notifications", notificationsHandler(notices))
	authed.GET("/users/:user_id/orders", listUserOrdersHandler(orders, nil))
	authed.GET("/vendors/:vendor_id/orders", listVendorOrdersHandler(orders, nil))
	authed.PUT("/orders/:id/status", updateOrderStatusHandler(orders, nil))

	return &env{router: r, products: products, orders: orders, carts: carts}
}

func (e *env) seedProduct(id, vendorID, name, price string, stock int) {
	_ = e.products.Create(context.Background(), &catalog.Product{
		ID: id, VendorID: vendorID, Name: name, Price: price, Stock: stock,
	})
}

func (e *env) do(method, path, body, uid string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if uid != "" {
		req.Header.Set("X-User-ID", uid)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

//
// ---------- TESTS ----------
//

func TestCartEndpoints_RequireIdentity(t *testing.T) {
	e := newEnv()
	w := e.do(http.MethodGet, "/cart", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s (esperaba 401)", w.Code, w.Body.String())
	}
}

func TestAddToCart_OK_And_UnknownProduct(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", "v1", "Mouse", "10.00", 5)

	w := e.do(http.MethodPost, "/cart/items", `{"product_id":"p1","quantity":2}`, "u1")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got struct {
		TotalItems int `json:"total_items"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.TotalItems != 2 {
		t.Fatalf("total_items=%d, esperaba 2", got.TotalItems)
	}

	w = e.do(http.MethodPost, "/cart/items", `{"product_id":"nope"}`, "u1")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (esperaba 404)", w.Code, w.Body.String())
	}
}

func TestUpdateCartQuantity_ZeroRemoves(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", "v1", "Mouse", "10.00", 5)

	_ = e.do(http.MethodPost, "/cart/items", `{"product_id":"p1","quantity":3}`, "u1")
	w := e.do(http.MethodPut, "/cart/items/p1", `{"quantity":0}`, "u1")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if n := e.carts.TotalItems("u1"); n != 0 {
		t.Fatalf("total=%d, esperaba 0 tras quantity=0", n)
	}
}

func TestApplyCoupon_InvalidCode(t *testing.T) {
	e := newEnv()
	w := e.do(http.MethodPost, "/cart/coupon", `{"code":"BOGUS"}`, "u1")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (esperaba 400)", w.Code, w.Body.String())
	}
}

func TestCartView_WithCouponTotals(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", "v1", "Mouse", "100.00", 5)
	_ = e.do(http.MethodPost, "/cart/items", `{"product_id":"p1","quantity":2}`, "u1")
	_ = e.do(http.MethodPost, "/cart/coupon", `{"code":"SAVE10"}`, "u1")

	w := e.do(http.MethodGet, "/cart", "", "u1")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got struct {
		Subtotal string `json:"subtotal"`
		Discount string `json:"discount"`
		Total    string `json:"total"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Subtotal != "200.00" || got.Discount != "20.00" || got.Total != "180.00" {
		t.Fatalf("totales inesperados: %+v", got)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	e := newEnv()
	w := e.do(http.MethodPost, "/checkout", `{"payment_method":"card"}`, "u1")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (esperaba 400)", w.Code, w.Body.String())
	}
}

func TestCheckout_HappyPath_CashOnDelivery(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", "v1", "Mouse", "15.00", 5)
	_ = e.do(http.MethodPost, "/cart/items", `{"product_id":"p1","quantity":2}`, "u1")

	w := e.do(http.MethodPost, "/checkout", `{"payment_method":"cash-on-delivery"}`, "u1")
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var sum checkout.Summary
	_ = json.Unmarshal(w.Body.Bytes(), &sum)
	if sum.Status != order.StatusPending {
		t.Fatalf("status=%s, esperaba pending", sum.Status)
	}
	// stock 5 - 2 = 3
	if e.products.items["p1"].Stock != 3 {
		t.Fatalf("stock=%d, esperaba 3", e.products.items["p1"].Stock)
	}
	// el carrito queda vacío
	if n := e.carts.TotalItems("u1"); n != 0 {
		t.Fatalf("cart total=%d, esperaba 0", n)
	}
}

func TestCheckout_Card_Delivered(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", "v1", "Mouse", "15.00", 5)
	_ = e.do(http.MethodPost, "/cart/items", `{"product_id":"p1","quantity":2}`, "u1")

	w := e.do(http.MethodPost, "/checkout", `{"payment_method":"card"}`, "u1")
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var sum checkout.Summary
	_ = json.Unmarshal(w.Body.Bytes(), &sum)
	if sum.Status != order.StatusDelivered {
		t.Fatalf("status=%s, esperaba delivered", sum.Status)
	}
	o, _, err := e.orders.GetByID(context.Background(), sum.OrderID)
	if err != nil || o.Status != order.StatusDelivered {
		t.Fatalf("orden persistida status=%v err=%v", o, err)
	}
}

func TestCheckout_InsufficientStock(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", "v1", "Mouse", "10.00", 1)
	_ = e.do(http.MethodPost, "/cart/items", `{"product_id":"p1","quantity":2}`, "u1")

	w := e.do(http.MethodPost, "/checkout", `{"payment_method":"card"}`, "u1")
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (esperaba 409)", w.Code, w.Body.String())
	}
	// nada persistido, stock intacto, carrito intacto
	if e.products.items["p1"].Stock != 1 {
		t.Fatalf("stock=%d, esperaba 1", e.products.items["p1"].Stock)
	}
	if n := e.carts.TotalItems("u1"); n != 2 {
		t.Fatalf("cart total=%d, esperaba 2", n)
	}
}

func TestCheckout_ProductDeletedAfterCarting(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", "v1", "Mouse", "10.00", 5)
	_ = e.do(http.MethodPost, "/cart/items", `{"product_id":"p1","quantity":1}`, "u1")
	delete(e.products.items, "p1") // la publicación desapareció

	w := e.do(http.MethodPost, "/checkout", `{"payment_method":"card"}`, "u1")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (esperaba 404, no 409)", w.Code, w.Body.String())
	}
	if n := e.carts.TotalItems("u1"); n != 1 {
		t.Fatalf("cart total=%d, esperaba 1", n)
	}
}

func TestListUserOrders_Projected(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", "v1", "Mouse", "10.00", 10)
	_ = e.do(http.MethodPost, "/cart/items", `{"product_id":"p1","quantity":1}`, "u1")
	if w := e.do(http.MethodPost, "/checkout", `{"payment_method":"card"}`, "u1"); w.Code != http.StatusCreated {
		t.Fatalf("checkout: status=%d body=%s", w.Code, w.Body.String())
	}

	w := e.do(http.MethodGet, "/users/u1/orders", "", "u1")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got struct {
		Orders []order.Projected `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("json inválido: %v", err)
	}
	if len(got.Orders) != 1 || len(got.Orders[0].Lines) != 1 {
		t.Fatalf("proyección inesperada: %+v", got.Orders)
	}
	if got.Orders[0].Lines[0].Name != "Mouse" {
		t.Fatalf("snapshot name=%q", got.Orders[0].Lines[0].Name)
	}
}

func TestListVendorOrders(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", "v1", "Mouse", "10.00", 10)
	e.seedProduct("p2", "v2", "Teclado", "20.00", 10)
	_ = e.do(http.MethodPost, "/cart/items", `{"product_id":"p1"}`, "u1")
	_ = e.do(http.MethodPost, "/cart/items", `{"product_id":"p2"}`, "u1")
	if w := e.do(http.MethodPost, "/checkout", `{"payment_method":"card"}`, "u1"); w.Code != http.StatusCreated {
		t.Fatalf("checkout: status=%d body=%s", w.Code, w.Body.String())
	}

	w := e.do(http.MethodGet, "/vendors/v2/orders", "", "v2")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got struct {
		Orders []order.Projected `json:"orders"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if len(got.Orders) != 1 {
		t.Fatalf("vendor orders=%d, esperaba 1", len(got.Orders))
	}
}

func TestUpdateOrderStatus_CancelRestocks(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", "v1", "Mouse", "10.00", 5)
	_ = e.do(http.MethodPost, "/cart/items", `{"product_id":"p1","quantity":2}`, "u1")
	w := e.do(http.MethodPost, "/checkout", `{"payment_method":"cash-on-delivery"}`, "u1")
	var sum checkout.Summary
	_ = json.Unmarshal(w.Body.Bytes(), &sum)

	if e.products.items["p1"].Stock != 3 {
		t.Fatalf("stock tras checkout=%d", e.products.items["p1"].Stock)
	}
	w = e.do(http.MethodPut, "/orders/"+sum.OrderID+"/status", `{"status":"cancelled"}`, "u1")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if e.products.items["p1"].Stock != 5 {
		t.Fatalf("restock falló: stock=%d, esperado=5", e.products.items["p1"].Stock)
	}
}

func TestOrderEndpoints_RequireIdentity(t *testing.T) {
	e := newEnv()
	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/users/u1/orders", ""},
		{http.MethodGet, "/vendors/v1/orders", ""},
		{http.MethodPut, "/orders/" + uuid.NewString() + "/status", `{"status":"cancelled"}`},
	} {
		w := e.do(tc.method, tc.path, tc.body, "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: status=%d body=%s (esperaba 401)", tc.method, tc.path, w.Code, w.Body.String())
		}
	}
}

func TestListOrders_OnlyOwnRows(t *testing.T) {
	e := newEnv()

	w := e.do(http.MethodGet, "/users/u1/orders", "", "u2")
	if w.Code != http.StatusForbidden {
		t.Fatalf("pedidos de otro usuario: status=%d body=%s (esperaba 403)", w.Code, w.Body.String())
	}
	w = e.do(http.MethodGet, "/vendors/v2/orders", "", "v1")
	if w.Code != http.StatusForbidden {
		t.Fatalf("pedidos de otro vendedor: status=%d body=%s (esperaba 403)", w.Code, w.Body.String())
	}
}

func TestUpdateOrderStatus_OnlyParticipants(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", "v1", "Mouse", "10.00", 5)
	_ = e.do(http.MethodPost, "/cart/items", `{"product_id":"p1","quantity":2}`, "u1")
	w := e.do(http.MethodPost, "/checkout", `{"payment_method":"cash-on-delivery"}`, "u1")
	var sum checkout.Summary
	_ = json.Unmarshal(w.Body.Bytes(), &sum)

	// un tercero no puede tocar la orden
	w = e.do(http.MethodPut, "/orders/"+sum.OrderID+"/status", `{"status":"cancelled"}`, "u9")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status=%d body=%s (esperaba 403)", w.Code, w.Body.String())
	}
	if e.products.items["p1"].Stock != 3 {
		t.Fatalf("stock=%d, la orden rechazada no debe reponer stock", e.products.items["p1"].Stock)
	}

	// el vendedor con líneas en la orden sí puede
	w = e.do(http.MethodPut, "/orders/"+sum.OrderID+"/status", `{"status":"confirmed"}`, "v1")
	if w.Code != http.StatusOK {
		t.Fatalf("vendedor: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateOrderStatus_Invalid(t *testing.T) {
	e := newEnv()
	w := e.do(http.MethodPut, "/orders/"+uuid.NewString()+"/status", `{"status":"wtf"}`, "u1")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (esperaba 400)", w.Code, w.Body.String())
	}
}

func TestNotifications_DrainAfterMutations(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", "v1", "Mouse", "10.00", 5)
	_ = e.do(http.MethodPost, "/cart/items", `{"product_id":"p1","quantity":1}`, "u1")
	_ = e.do(http.MethodDelete, "/cart/items/p1", "", "u1")

	w := e.do(http.MethodGet, "/notifications", "", "u1")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got struct {
		Notifications []string `json:"notifications"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if len(got.Notifications) != 2 {
		t.Fatalf("notifications=%v, esperaba 2", got.Notifications)
	}

	// drained: next read is empty
	w = e.do(http.MethodGet, "/notifications", "", "u1")
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if len(got.Notifications) != 0 {
		t.Fatalf("notifications=%v, esperaba vacío", got.Notifications)
	}
}

func TestCreateProduct_Validation(t *testing.T) {
	e := newEnv()

	valid := `{"vendor_id":"v1","name":"Starter Kit","price":"49.90","stock":10}`
	if w := e.do(http.MethodPost, "/products", valid, ""); w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	missing := `{"description":"x","stock":1}`
	if w := e.do(http.MethodPost, "/products", missing, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("esperaba 400, got %d body=%s", w.Code, w.Body.String())
	}

	neg := `{"vendor_id":"v1","name":"Bad","price":"1.00","stock":-1}`
	if w := e.do(http.MethodPost, "/products", neg, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("esperaba 400 por stock negativo, got %d body=%s", w.Code, w.Body.String())
	}

	badPrice := `{"vendor_id":"v1","name":"Bad","price":"abc","stock":1}`
	if w := e.do(http.MethodPost, "/products", badPrice, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("esperaba 400 por precio inválido, got %d body=%s", w.Code, w.Body.String())
	}
}

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	log.SetOutput(io.Discard)
}
