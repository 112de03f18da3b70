package rbac

// Resource kinds understood by the scope resolver and the quota gate.
const (
	KindOrders    = "orders"
	KindCustomers = "customers"
	KindStaff     = "staff"
	KindBranches  = "branches"
)

// Master capabilities, one per domain. A master flag set to true on a role
// implies every member capability of its domain.
const (
	CapManageOrders    = "can_manage_orders"
	CapManageStaff     = "can_manage_staff"
	CapManageBranches  = "can_manage_branches"
	CapManageFinances  = "can_manage_finances"
	CapManageReports   = "can_manage_reports"
	CapManageProducts  = "can_manage_products"
	CapManageCustomers = "can_manage_customers"
	CapManageMarketing = "can_manage_marketing"
	CapManageSettings  = "can_manage_settings"
)

// Order capabilities.
const (
	CapViewAllOrders     = "can_view_all_orders"
	CapViewOwnOrders     = "can_view_own_orders"
	CapViewBranchOrders  = "can_view_branch_orders"
	CapCreateOrders      = "can_create_orders"
	CapEditOrders        = "can_edit_orders"
	CapDeleteOrders      = "can_delete_orders"
	CapAssignOrders      = "can_assign_orders"
	CapUpdateOrderStatus = "can_update_order_status"
	CapCompleteOrders    = "can_complete_orders"
	CapCancelOrders      = "can_cancel_orders"
)

// Staff capabilities.
const (
	CapViewStaff       = "can_view_staff"
	CapViewBranchStaff = "can_view_branch_staff"
	CapEditStaff       = "can_edit_staff"
	CapDeleteStaff     = "can_delete_staff"
)

// Branch capabilities.
const (
	CapViewBranches   = "can_view_branches"
	CapViewOwnBranch  = "can_view_own_branch"
	CapCreateBranches = "can_create_branches"
	CapEditBranches   = "can_edit_branches"
	CapDeleteBranches = "can_delete_branches"
)

// Financial capabilities.
const (
	CapReceivePayments      = "can_receive_payments"
	CapApplyDiscounts       = "can_apply_discounts"
	CapRefundOrders         = "can_refund_orders"
	CapViewFinancialReports = "can_view_financial_reports"
)

// Reports capabilities.
const (
	CapViewAnalytics        = "can_view_analytics"
	CapExportData           = "can_export_data"
	CapViewStaffPerformance = "can_view_staff_performance"
)

// Product capabilities.
const (
	CapViewProducts   = "can_view_products"
	CapCreateProducts = "can_create_products"
	CapEditProducts   = "can_edit_products"
	CapDeleteProducts = "can_delete_products"
)

// Customer capabilities.
const (
	CapViewCustomers       = "can_view_customers"
	CapViewOwnCustomers    = "can_view_own_customers"
	CapViewBranchCustomers = "can_view_branch_customers"
	CapViewCustomerDetails = "can_view_customer_details"
	CapEditCustomers       = "can_edit_customers"
	CapDeleteCustomers     = "can_delete_customers"
)

// Marketing capabilities.
const (
	CapSendBroadcasts = "can_send_broadcasts"
	CapViewCampaigns  = "can_view_campaigns"
)

// Settings capabilities.
const (
	CapEditOrganization = "can_edit_organization"
	CapManageRoles      = "can_manage_roles"
)
