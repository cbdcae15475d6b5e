package server

// NavItem is one sidebar entry
type NavItem struct {
	Title string
	URL   string
	Icon  string
}

// NavGroup is a titled section of the sidebar
type NavGroup struct {
	Title string
	Items []NavItem
}

// Navigation is the dashboard sidebar. Every URL is a protected page.
var Navigation = []NavGroup{
	{
		Title: "General",
		Items: []NavItem{
			{Title: "Dashboard", URL: RouteHome, Icon: "layout-dashboard"},
			{Title: "Cotizador", URL: RouteQuotes, Icon: "file-text"},
		},
	},
	{
		Title: "Gestión",
		Items: []NavItem{
			{Title: "Clientes", URL: RouteClients, Icon: "map"},
			{Title: "Productos", URL: RouteProducts, Icon: "files"},
		},
	},
	{
		Title: "Facturación",
		Items: []NavItem{
			{Title: "Facturas", URL: RouteInvoicing, Icon: "file-text"},
			{Title: "Complementos de Pago", URL: RouteInvoicingPaymentComplements, Icon: "credit-card"},
			{Title: "Notas de Crédito", URL: RouteInvoicingCreditNotes, Icon: "file-text"},
			{Title: "Carta Porte", URL: RouteInvoicingBillOfLading, Icon: "truck"},
		},
	},
	{
		Title: "Reportes",
		Items: []NavItem{
			{Title: "Reporte de Ventas", URL: RouteReportsSales, Icon: "bar-chart-3"},
		},
	},
	{
		Title: "Configuración",
		Items: []NavItem{
			{Title: "Catálogos SAT", URL: RouteCatalogs, Icon: "database"},
			{Title: "Configuración", URL: RouteSettings, Icon: "settings"},
		},
	},
	{
		Title: "Soporte",
		Items: []NavItem{
			{Title: "Ayuda", URL: RouteHelpCenter, Icon: "help-circle"},
		},
	},
}

// dashboardPages lists every sidebar item in order
func dashboardPages() []NavItem {
	var items []NavItem
	for _, group := range Navigation {
		items = append(items, group.Items...)
	}
	return items
}
