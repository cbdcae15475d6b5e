package server

import "github.com/hazfactura/console/guard"

// Route path constants
const (
	// Session routes
	RouteSignIn  = guard.LocationSignIn
	RouteLogout  = "/logout"
	RouteSession = "/session"

	// Account creation routes, anonymous only
	RouteSignUp  = "/prueba-gratis"
	RouteWelcome = "/bienvenido"

	// Account setup, session required without the profile check
	RouteAccountSetup = guard.LocationAccountSetup
	RouteTaxRegimes   = guard.LocationAccountSetup + "/regimenes"

	// Dashboard routes
	RouteHome                        = guard.LocationHome
	RouteQuotes                      = "/quotes"
	RouteClients                     = "/clients"
	RouteProducts                    = "/products"
	RouteInvoicing                   = "/invoicing"
	RouteInvoicingPaymentComplements = "/invoicing/payment-complements"
	RouteInvoicingCreditNotes        = "/invoicing/credit-notes"
	RouteInvoicingBillOfLading       = "/invoicing/bill-of-lading"
	RouteReportsSales                = "/reports/sales"
	RouteCatalogs                    = "/catalogs"
	RouteSettings                    = "/settings"
	RouteHelpCenter                  = "/help-center"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
	RouteStaticJS  = "/js/{file}"
)
