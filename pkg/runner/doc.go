// Package runner is the client side of a codegame connection: the turn
// loop that feeds server views to a Strategy and sends its actions back.
//
// The loop is a small state machine:
//
//	AwaitingState ──GetAction──> Deciding ──> Sending ──> AwaitingState
//	      │  ╰──DebugUpdate──> (strategy redraws, ack) ──╯
//	      ╰──Finish / clean close──> Finished
//
// Debug commands issued by the strategy while Deciding are written and
// flushed immediately, so the host sees them before the action.
//
// # Usage Example
//
//	r, err := runner.Dial(ctx, "127.0.0.1:31001", token, runner.StrategyFunc(
//	    func(view model.PlayerView, debug *runner.Debug) (model.Action, error) {
//	        debug.Log(fmt.Sprintf("tick %d", view.Tick))
//	        return model.Action{}, nil
//	    }))
//	if err != nil {
//	    return err
//	}
//	return r.Run(ctx)
package runner
