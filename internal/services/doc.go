// Package services contains the business layer between the HTTP transport
// and the dataset. DashboardService owns the live snapshot; HealthService
// reports on the process and its dependencies.
package services
