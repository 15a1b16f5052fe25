package model

// Privilege represents a permission granted to a role
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "sale:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Record Sale"
}

// Privilege codes checked by the HTTP layer.
const (
	PrivProductView    = "product:view"
	PrivProductCreate  = "product:create"
	PrivProductUpdate  = "product:update"
	PrivProductDelete  = "product:delete"
	PrivProductRestock = "product:restock"
	PrivSaleView       = "sale:view"
	PrivSaleCreate     = "sale:create"
	PrivSaleOverride   = "sale:override"
	PrivRequestView    = "request:view"
	PrivRequestCreate  = "request:create"
	PrivRequestDecide  = "request:decide"
	PrivRequestDelete  = "request:delete"
	PrivReportView     = "report:view"
	PrivUserView       = "user:view"
	PrivUserManage     = "user:manage"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	{Code: PrivProductRestock, Name: "Restock Product"},
	{Code: PrivSaleView, Name: "View Sale"},
	{Code: PrivSaleCreate, Name: "Record Sale"},
	{Code: PrivSaleOverride, Name: "Edit or Delete Sale"},
	{Code: PrivRequestView, Name: "View Request"},
	{Code: PrivRequestCreate, Name: "Create Request"},
	{Code: PrivRequestDecide, Name: "Approve or Reject Request"},
	{Code: PrivRequestDelete, Name: "Delete Request"},
	{Code: PrivReportView, Name: "View Reports"},
	{Code: PrivUserView, Name: "View User"},
	{Code: PrivUserManage, Name: "Create or Update User"},
}

// StaffPrivileges is the subset granted to the STAFF role.
var StaffPrivileges = []string{
	PrivProductView,
	PrivProductRestock,
	PrivSaleView,
	PrivSaleCreate,
	PrivRequestView,
	PrivRequestCreate,
	PrivReportView,
}
