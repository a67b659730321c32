// Package health runs named readiness checks for the friendlyid worker and
// the check command.
//
// [Run] executes [Checks] in parallel under one timeout and reports each
// result:
//
//	resp, err := health.Run(ctx, health.Checks{
//	    "postgres": db.Healthcheck(pool),
//	    "redis":    redis.Healthcheck(client),
//	})
//
// [NewMux] exposes the same checks over HTTP for container probes:
// [LivenessPath] always answers 200 and [ReadinessPath] answers 503 when a
// check fails. Both reply in plain text unless the client sends
// Accept: application/json or ?format=json.
package health
