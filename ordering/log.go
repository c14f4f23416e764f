package ordering

// Logging convention in the `ordering` package:
// Info:
//     essential events for abnormal behavior. This level should be silent on
//     normal operation, with the exception of one time (infrequent)
//     initialization data that is useful for monitoring
// V(2):
//     key lifecycle events with tenant/document ids that can be used to
//     filter: orderer create, cache eviction
//
// The submit path never logs. Per-envelope events would dominate output at
// any real edit rate; failures there surface as errors to the caller, and
// the caller's tier owns reporting them.
