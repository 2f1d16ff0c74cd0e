// Package main provides docbench, a benchmark comparing MongoDB and PostgreSQL on the same order/item
// workload.
//
// docbench runs ten operations (single and batch inserts, item append, update and delete, order fetches,
// filtered fetches, item counts, amount aggregation and batch fetches) against both stores under four data
// modelling scenarios, at each configured scale and concurrency level, and writes a CSV and a Markdown
// report per run. Use --in-memory to exercise the whole pipeline without any database.
package main
