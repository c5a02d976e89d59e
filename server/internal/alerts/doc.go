// Package alerts implements the rule evaluation engine and webhook delivery
// for logloss-server. Rules are evaluated against every incoming evaluation;
// webhooks are delivered to Teams, Slack, or generic HTTP targets.
package alerts
