// Package woosync contains the storefront synchronization bounded context.
// It models the ERP side of a WooCommerce store link: the sync configuration,
// remote record snapshots, the local records they map onto, and the ports the
// sync engine needs from transport and persistence.
//
// Key concepts:
//   - SyncConfiguration: explicit handle passed through every sync call
//   - Remote*: typed snapshots of WooCommerce REST payloads, immutable for a run
//   - Product, Customer, SaleOrder, StockRecord: local records keyed by the
//     natural key (site URL, remote ID)
//   - Reference: shared, name-keyed taxonomy entities (tax, category, tag, ...)
//   - RunReport: outcome of one sync run, per step
//
// Design Pattern: Ports & Adapters
//   - Ports (RemoteClient, Connector, ImageFetcher, Store) are defined here
//   - Adapters live in the infrastructure layer
package woosync
